package gui

import (
	"fmt"
	"os"
	"runtime"
)

// checkDisplay fails early on a headless Linux session, where fyne would
// otherwise abort inside its driver.
func checkDisplay() error {
	if runtime.GOOS != "linux" {
		return nil
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return fmt.Errorf("GUI mode requires a display. No display detected.\n" +
			"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
			"Use 'pdrive' without --gui for CLI mode")
	}
	return nil
}
