package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/3leaps/gofutures/pkg/output"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// createWriter creates an output writer for dest, which is "stdout", "" or
// a file path with an optional "file:" prefix. Returns the writer, a cleanup
// function, and any error.
func createWriter(dest, jobID, providerName string) (output.Writer, func(), error) {
	if dest == "" || dest == "stdout" || dest == "-" {
		w := output.NewJSONLWriter(stdout, jobID, providerName)
		return w, func() { _ = w.Close() }, nil
	}

	path := strings.TrimPrefix(dest, "file:")
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := output.NewJSONLWriter(f, jobID, providerName)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}
