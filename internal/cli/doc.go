// SPDX-License-Identifier: MPL-2.0

// Package cli implements the launchbox-pull and launchbox-build command lines.
//
// Both programs share one flow: load configuration, check preconditions,
// connect to the engine, obtain the image (pull or build), then run the
// provisioning routine and relay the attached container streams.
package cli
