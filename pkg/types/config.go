// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// VisionConfig holds settings for the vision-model client.
type VisionConfig struct {
	// Model is the vision model identifier (e.g. "qwen3-vl").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the OpenAI-compatible endpoint. Defaults to a local
	// Ollama server ("http://localhost:11434/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates against hosted endpoints. Local Ollama
	// ignores it.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for failed requests
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ConvertConfig holds settings for converting one document.
type ConvertConfig struct {
	// OutputPath is the Markdown output file. Empty means
	// "<input stem>.md" next to the input.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ImagesDir is where extracted images are written. Empty means
	// "<input stem>_images" next to the Markdown output.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// PageFirst and PageLast bound the 0-based inclusive page range.
	// A negative PageLast means "through the final page". The range is
	// clamped to the document.
	PageFirst int `json:"page_first" yaml:"page_first"`
	PageLast  int `json:"page_last" yaml:"page_last"`

	// DPI is the page render resolution (default 150).
	DPI int `json:"dpi" yaml:"dpi"`

	// Workers bounds concurrent page processing (default 4). Output
	// ordering is page-index order regardless of completion order.
	Workers int `json:"workers" yaml:"workers"`
}

// BatchConfig holds settings for converting a directory of documents.
type BatchConfig struct {
	ConvertConfig `yaml:",inline"`

	// OutputDir is where Markdown files and image directories land.
	// Empty means "next to each input".
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}
