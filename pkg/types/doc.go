// SPDX-License-Identifier: MPL-2.0

// Package types holds small validated value types shared by the chores
// commands: exit codes, filesystem paths and credentials.
package types
