package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Level is the minimum level for the console and the file.
	Level slog.Level
	// Console receives human readable output. Default: os.Stderr
	Console io.Writer
	// File enables a rotating JSON log when set.
	File string
	// MaxSizeMB is the size at which File is rotated. Default: 10
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Default: 3
	MaxBackups int
}

// New builds a logger that fans out to the console, the optional log file and any extra handlers.
// The returned closer releases the log file.
func New(options Options, extra ...slog.Handler) (*slog.Logger, io.Closer) {
	console := options.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: options.Level}),
	}

	var closer io.Closer = nopCloser{}
	if options.File != "" {
		maxSize := options.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := options.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		file := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: options.Level}))
		closer = file
	}

	handlers = append(handlers, extra...)

	return slog.New(slogmulti.Fanout(handlers...)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
