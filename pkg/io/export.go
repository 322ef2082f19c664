package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/spatialbench/pkg/record"
)

// WriteRecords encodes records as an indented JSON array and writes it to w.
// A nil slice is written as an empty array.
func WriteRecords(records []record.Record, w io.Writer) error {
	if records == nil {
		records = []record.Record{}
	}
	return writeJSON(records, w)
}

// ExportRecords writes records to a JSON file at path, creating parent
// directories as needed.
func ExportRecords(records []record.Record, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteRecords(records, w) })
}

// WriteTruth encodes ground truth entries as an indented JSON array.
func WriteTruth(truth []record.Truth, w io.Writer) error {
	if truth == nil {
		truth = []record.Truth{}
	}
	return writeJSON(truth, w)
}

// ExportTruth writes ground truth entries to a JSON file at path.
func ExportTruth(truth []record.Truth, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteTruth(truth, w) })
}

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func exportFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
