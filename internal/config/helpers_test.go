// SPDX-License-Identifier: MPL-2.0

package config

import "github.com/kstep/chores/pkg/types"

func dirPath(s string) types.FilesystemPath { return types.FilesystemPath(s) }
