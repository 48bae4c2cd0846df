// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Manifest records what a single conversion produced. It is written next
// to the Markdown output as <stem>.manifest.yaml.
type Manifest struct {
	Source      string    `yaml:"source"`
	Output      string    `yaml:"output"`
	Model       string    `yaml:"model"`
	Pages       int       `yaml:"pages"`
	Images      int       `yaml:"images"`
	Duration    string    `yaml:"duration"`
	ConvertedAt time.Time `yaml:"converted_at"`
}

// WriteManifest serializes the manifest to path.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest from path.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
