// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types for chores: ActionableError
// with its ErrorContext builder, and a small markdown catalog of remediation
// help rendered with glamour.
package issue
