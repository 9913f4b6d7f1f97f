package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when Log.AppName is missing.
	ErrAppNameIsEmpty = errors.New("logger: Log.AppName is required")

	// ErrServiceNameIsEmpty is returned when Log.ServiceName is missing.
	ErrServiceNameIsEmpty = errors.New("logger: Log.ServiceName is required")
)

// writeFailures receives zerolog write errors.
var writeFailures io.Writer = os.Stderr //nolint:gochecknoglobals

// WriteErrorHandler reports events zerolog failed to write.
func WriteErrorHandler(err error) {
	_, _ = fmt.Fprintf(writeFailures, "iam logger: dropped event: %v\n", err)
}
