package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/rs/zerolog"
)

var logFile *os.File

// initLogging sends log output to stderr, plus a log file when LOG_FILE
// is set. LOG_LEVEL tunes verbosity (default info).
func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}

	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	writer := zerolog.MultiLevelWriter(consoleWriter)
	if logFilePath := os.Getenv("LOG_FILE"); logFilePath != "" {
		if logDir := filepath.Dir(logFilePath); logDir != "." {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				println("Error creating log directory: " + err.Error())
			}
		}
		var err error
		logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			println("Error opening log file: " + err.Error())
		} else {
			writer = zerolog.MultiLevelWriter(consoleWriter, logFile)
		}
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	log.Info().Msgf("ratio-master v%s", VERSION)
}

// shutdownLogging safely closes the log file if it's open.
// This should be called when the application is shutting down.
func shutdownLogging() {
	if logFile != nil {
		err := logFile.Close()
		if err != nil {
			println("Error closing log file: " + err.Error())
		}
	}
}
