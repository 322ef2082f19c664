// Package io provides JSON import and export for benchmark records.
//
// # Overview
//
// A dataset's metadata is a flat JSON array of records, one per image, in
// sample order. The format is shared with existing datasets, so files
// written here can be consumed by any tool that reads them:
//
//	[
//	  {
//	    "img_name": "000.png",
//	    "sybVp_promptTem": "The figure represents a map ...",
//	    "imgVp_promptTem": "The figure represents a map ...",
//	    "ans": "C. UpperLeft"
//	  }
//	]
//
// # Export
//
// Use [ExportRecords] to write records to a file, or [WriteRecords] to write
// to any io.Writer. Output is indented with four spaces.
//
// # Import
//
// Use [ImportRecords] to read a file, or [ReadRecords] to read from any
// io.Reader. Every record is validated: all four fields must be present and
// img_name must be a generated image name, which keeps a metadata file from
// pointing the benchmark runner outside its dataset directory.
//
// # Ground Truth
//
// [ExportTruth] and [WriteTruth] write the optional per-image ground truth
// (mode, relation, target, reference and every point) as a separate JSON
// array. The record file never carries these fields.
package io
