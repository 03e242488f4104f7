package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

var (
	// Default logger instance
	Default *log.Logger
)

func init() {
	Default = log.New(os.Stderr)
	Default.SetPrefix("luxera")
	Default.SetLevel(log.InfoLevel)
}

// GetLogger returns the default logger instance
func GetLogger() *log.Logger {
	return Default
}

// WithJob returns a logger carrying a "job" field set to jobHash. The job
// dispatcher uses it for its job-scoped log lines; the simulation engines
// themselves do not log.
func WithJob(jobHash string) *log.Logger {
	return Default.With("job", jobHash)
}
