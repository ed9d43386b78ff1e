package common

import (
	"os"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stderr).Output(zerolog.ConsoleWriter{Out: os.Stderr})

// Logger is the console logger everything else derives its own from.
func Logger() zerolog.Logger {
	return log
}
