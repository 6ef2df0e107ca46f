// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds Markdown guidance for the failures
// users hit most often (engine unreachable, missing Dockerfile, bad config) and
// renders it for the terminal.
package issue
