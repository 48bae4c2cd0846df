// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentStatus indicates the terminal state of one document conversion.
type DocumentStatus string

const (
	DocumentConverted DocumentStatus = "converted"
	DocumentSkipped   DocumentStatus = "skipped"
	DocumentFailed    DocumentStatus = "failed"
)

// DocumentResult summarizes one converted document.
type DocumentResult struct {
	// Source is the input document path.
	Source string `json:"source" yaml:"source"`

	// Output is the Markdown file written, empty on failure.
	Output string `json:"output" yaml:"output"`

	// Status is the terminal state.
	Status DocumentStatus `json:"status" yaml:"status"`

	// Pages is the number of pages reconciled.
	Pages int `json:"pages" yaml:"pages"`

	// Images is the number of image files persisted.
	Images int `json:"images" yaml:"images"`

	// Err carries the failure, nil otherwise.
	Err error `json:"-" yaml:"-"`

	// Duration is the wall-clock conversion time.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// BatchResult holds the outcome of a batch conversion run. Per-document
// failures are isolated; the batch always runs to completion.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Documents []DocumentResult
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}
