// Package reporting writes run reports.
package reporting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Reporter appends run records to an output.
type Reporter interface {
	// Write appends one run.
	Write(run *Run) error
	// Close flushes the report and closes any underlying file.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format ("yaml" or "json") writing to
// outputPath. Runs are appended, so one file collects every run of a
// session. "stdout" or an empty path writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if format != "yaml" && format != "json" {
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == "json" {
		return NewJSONReporter(writer), nil
	}
	return NewYAMLReporter(writer), nil
}

// YAMLReporter writes each run as its own YAML document. Every document
// starts with an explicit "---" so that reports appended by later sessions
// stay separate documents.
type YAMLReporter struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewYAMLReporter takes ownership of w.
func NewYAMLReporter(w io.WriteCloser) *YAMLReporter {
	return &YAMLReporter{w: w}
}

func (r *YAMLReporter) Write(run *Run) error {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.RunID, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.RunID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *YAMLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Close()
}

// JSONReporter writes one JSON object per line.
type JSONReporter struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *jsoniter.Encoder
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{w: w, enc: jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)}
}

func (r *JSONReporter) Write(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(run); err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Close()
}
