// SPDX-License-Identifier: MPL-2.0

// Command launchbox-pull pulls the configured image and (re)provisions its container.
package main

import (
	"os"

	"github.com/invowk/launchbox/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.ProgramPull))
}
