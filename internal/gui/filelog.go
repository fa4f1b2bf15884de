package gui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
)

// openFileLog opens the rotating GUI log under config.LogDirectory. A desktop
// launch has no terminal, so this file is the only place its logs end up.
func openFileLog() (*lumberjack.Logger, error) {
	if err := config.EnsureLogDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(config.LogDirectory(), constants.AppName+".log"),
		MaxSize:    10, // MB per file
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}, nil
}

// logWriter is stderr plus the file log when one could be opened.
func logWriter(file io.Writer) io.Writer {
	if file == nil {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, file)
}
