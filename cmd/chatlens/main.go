package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0 // Evaluation completed
	ExitPartial = 1 // One or more transcripts could not be evaluated
	ExitError   = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var partialErr *partialFailureError
		if errors.As(err, &partialErr) {
			os.Exit(ExitPartial)
		}
		os.Exit(ExitError)
	}
}
