package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Every replicate completed
	ExitDegraded = 1 // Run finished but one or more replicates were skipped
	ExitError    = 2 // Configuration or runtime error
)

// DegradedRunError indicates that the bootstrap finished and wrote its
// output, but one or more replicates were skipped, so the bands rest on
// fewer refits than requested.
type DegradedRunError struct {
	Message string
}

func (e *DegradedRunError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var degradedErr *DegradedRunError
		if errors.As(err, &degradedErr) {
			os.Exit(ExitDegraded)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
