package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/record"
)

// ReadRecords decodes a JSON array of records from r.
//
// ReadRecords returns an error if:
//   - The JSON is malformed or not an array
//   - A record is missing a field
//   - An img_name is not a generated image name (e.g. "007.png")
//
// Errors name the offending record by position. ReadRecords does not close r.
func ReadRecords(r io.Reader) ([]record.Record, error) {
	var records []record.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode records")
	}

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := errors.ValidateImageName(rec.ImgName); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// ImportRecords reads a JSON record file at path.
//
// ImportRecords returns the same validation errors as [ReadRecords]. A
// missing file is reported with code FILE_NOT_FOUND.
func ImportRecords(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "metadata file %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}
