// SPDX-License-Identifier: GPL-3.0-or-later

// Command utracer analyzes Universal-Tracer SIM/eUICC trace captures.
package main

import (
	"fmt"
	"os"

	"utracer/cmd/utracer/commands"
	"utracer/cmd/utracer/internal/cliutil"
)

func main() {
	err := commands.Root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "utracer:", err)
	}
	os.Exit(cliutil.ExitCode(err))
}
