package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rescale/pdrive/internal/constants"
)

// ConfigDirectory returns the platform-appropriate config directory.
//   - Windows: %APPDATA%\pdrive
//   - Unix: ~/.config/pdrive (XDG standard)
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, constants.AppName)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", constants.AppName)
	}
	return ""
}

// DefaultConfigPath returns the default INI file path, or "config.ini" in the
// working directory when no home directory is known.
func DefaultConfigPath() string {
	dir := ConfigDirectory()
	if dir == "" {
		return "config.ini"
	}
	return filepath.Join(dir, "config.ini")
}

// LogDirectory returns the directory GUI mode writes its log file to.
func LogDirectory() string {
	if dir := ConfigDirectory(); dir != "" {
		return filepath.Join(dir, "logs")
	}
	return filepath.Join(os.TempDir(), constants.AppName+"-logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
