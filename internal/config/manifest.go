package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest declares the ingestion corpus: remote wiki pages plus optional
// local document directories.
type Manifest struct {
	Pages []ManifestPage `yaml:"pages"`
	Dirs  []string       `yaml:"local_dirs"`
}

type ManifestPage struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read corpus manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse corpus manifest: %w", err)
	}
	for i, p := range m.Pages {
		if p.URL == "" {
			return Manifest{}, fmt.Errorf("corpus manifest: page %d has no url", i)
		}
	}
	return m, nil
}
