// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/kstep/chores/cmd/chores"

func main() {
	cmd.Execute()
}
