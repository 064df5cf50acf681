package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/starworks/depot/pkg/core/status"
	"github.com/starworks/depot/pkg/errors"
)

// infoLogger wraps informative messages to os.Stdout without cluttering expected output in tests.
var infoLogger = log.New(os.Stdout, "", 0)

// exit codes beyond the generic failure, so scripts can tell a plain
// miss from an integrity or availability problem
const (
	exitNotFound    = 2
	exitUnavailable = 3
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}

// fatalOnErr maps the core error taxonomy to exit codes
func fatalOnErr(msg string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, status.ErrNotFound) || errors.Is(err, status.ErrParentNotFound):
		wrapFatalWithCodef(exitNotFound, "%s: %v", msg, err)
	case errors.Is(err, status.ErrStorageUnavailable) || errors.Is(err, status.ErrBlobMissing):
		wrapFatalWithCodef(exitUnavailable, "%s: %v", msg, err)
	default:
		wrapFatalln(msg, err)
	}
}
