// pdrive - CLI and desktop client for a personal drive server.
//
// - No args + display available → GUI mode
// - No args + no display → CLI help
// - --gui → GUI mode
// - --cli → CLI mode (force)
// - CLI subcommands/flags → CLI mode
package main

import (
	"os"
	"runtime"
	"slices"

	"github.com/rescale/pdrive/internal/cli"
	"github.com/rescale/pdrive/internal/gui"
)

func main() {
	cli.LaunchGUI = gui.Run

	os.Args = resolveMode(os.Args, hasDisplay())
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveMode rewrites the arguments for the root command: --cli is dropped,
// and a bare invocation on a desktop becomes --gui.
func resolveMode(args []string, display bool) []string {
	if slices.Contains(args[1:], "--cli") {
		return slices.DeleteFunc(slices.Clone(args), func(a string) bool { return a == "--cli" })
	}
	if len(args) == 1 && display {
		return append(slices.Clone(args), "--gui")
	}
	return args
}

// hasDisplay reports whether a GUI can be shown. Only Linux can lack one.
func hasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
