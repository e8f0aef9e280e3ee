package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the standard logger with level prefixes. When a log file is
// configured output goes to both stdout and a rotated file.
type Logger struct {
	*log.Logger
	writer *lumberjack.Logger
}

func newLogger(cfg *Config) (*Logger, error) {
	if cfg.LogFile == "" {
		return &Logger{Logger: log.New(os.Stdout, "", log.LstdFlags)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSize, // MB
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge, // days
		Compress:   true,
	}

	return &Logger{
		Logger: log.New(io.MultiWriter(writer, os.Stdout), "", log.LstdFlags),
		writer: writer,
	}, nil
}

// newDiscardLogger is used by tests and by the CLI when output is unwanted.
func newDiscardLogger() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0)}
}

func (l *Logger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

func (l *Logger) Info(format string, v ...any) {
	l.Printf("[INFO] "+format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	l.Printf("[WARN] "+format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.Printf("[ERROR] "+format, v...)
}
