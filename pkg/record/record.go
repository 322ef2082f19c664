// Package record turns sampled layouts into benchmark records and draw
// instructions.
//
// # Records
//
// A [Record] is the persisted unit of the dataset: the image file name, two
// phrasings of the same multiple-choice question and the answer label.
// Records serialize with the field names used by existing datasets:
//
//	{
//	  "img_name": "007.png",
//	  "sybVp_promptTem": "The figure represents a map ... Which direction is object C located in the image? ...",
//	  "imgVp_promptTem": "The figure represents a map ... Which direction is red object located in the image? ...",
//	  "ans": "A. UpperRight"
//	}
//
// The symbolic phrasing ([Symbolic]) names a point by its label, the visual
// phrasing ([Visual]) by its color.
//
// # Scenes
//
// A [Scene] lists what a renderer must draw, in point creation order. It
// carries no question text and is never persisted with the records.
package record

import (
	"fmt"
	"strings"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// Record is one benchmark item.
type Record struct {
	ImgName string `json:"img_name"`
	SybVp   string `json:"sybVp_promptTem"`
	ImgVp   string `json:"imgVp_promptTem"`
	Ans     string `json:"ans"`
}

// Variant selects one of the two question phrasings.
type Variant string

const (
	// Symbolic refers to points by name ("object C").
	Symbolic Variant = "sybVp"
	// Visual refers to points by color ("red object").
	Visual Variant = "imgVp"
)

// Variants lists both phrasings.
var Variants = []Variant{Symbolic, Visual}

// ParseVariant accepts "sybVp"/"symbolic" and "imgVp"/"visual".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sybvp", "symbolic":
		return Symbolic, nil
	case "imgvp", "visual":
		return Visual, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown prompt variant %q (must be sybVp or imgVp)", s)
}

// Prompt returns the phrasing for v.
func (r Record) Prompt(v Variant) string {
	if v == Visual {
		return r.ImgVp
	}
	return r.SybVp
}

// Validate checks that every field is populated.
func (r Record) Validate() error {
	switch {
	case r.ImgName == "":
		return errors.New(errors.ErrCodeInvalidInput, "record has no img_name")
	case r.SybVp == "" || r.ImgVp == "":
		return errors.New(errors.ErrCodeInvalidInput, "record %s is missing a prompt", r.ImgName)
	case r.Ans == "":
		return errors.New(errors.ErrCodeInvalidInput, "record %s has no answer", r.ImgName)
	}
	return nil
}

// ImageName returns the zero-padded file name for a sample index, e.g.
// ImageName(7, "png") = "007.png".
func ImageName(index int, ext string) string {
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%03d.%s", index, strings.TrimPrefix(ext, "."))
}
