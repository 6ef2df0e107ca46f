// SPDX-License-Identifier: MPL-2.0

// Package engine talks to a Docker-compatible container engine over its remote API.
//
// The Engine interface covers exactly the calls launchbox makes: container
// inspect/stop/remove/create/start/attach/resize plus image pull and build.
// DockerEngine implements it on top of the Docker Go SDK, connecting through
// DOCKER_HOST or the local socket with API version negotiation.
//
// Pull and build feedback is exposed as Events, a single-use lazy sequence of
// ProgressEvent values decoded from the engine's JSON message stream. Errors
// carried by individual events are attached to the event instead of ending the
// sequence.
package engine
