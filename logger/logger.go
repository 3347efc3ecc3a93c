// Package logger provides a configurable logger across hashproof components
//
// The root logger defined by default uses github.com/rs/zerolog with a console
// writer on stderr; stdout is reserved for command results such as the public
// hash.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger()

	if strings.HasSuffix(os.Args[0], ".test") {
		logger = zerolog.Nop()
	}
}

// SetOutput changes the output of the global logger
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Set allows a hashproof user to override the global logger
func Set(l zerolog.Logger) {
	logger = l
}

// Disable disables logging
func Disable() {
	logger = zerolog.Nop()
}

// SetLevel sets the minimum level of the global logger
func SetLevel(level zerolog.Level) {
	logger = logger.Level(level)
}

// Logger returns a sublogger for a component
func Logger() zerolog.Logger {
	return logger
}
