// Package writer provides the output sinks for feature records. Every sink
// implements model.Writer; the pipeline fans each record out to all enabled
// sinks.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"FlowSentry/internal/model"
)

// CSVWriter appends one row per processed packet to a CSV file, writing the
// column header when it creates the file.
type CSVWriter struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSVWriter opens (or creates) the output file. The header is written
// only when the file starts empty, so restarts keep appending to the same
// dataset.
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv output %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat csv output: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(model.FeatureColumns()); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: file, w: w}, nil
}

// WriteRecord appends one feature row and flushes it to disk.
func (c *CSVWriter) WriteRecord(fv *model.FeatureVector) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.w.Write(fv.Row()); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes pending rows and closes the file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}
