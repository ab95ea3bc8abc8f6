package model

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed default_sources.yaml
var defaultSourcesYAML []byte

type yamlSource struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	FeedURL string   `yaml:"feed_url"`
	PageURL string   `yaml:"page_url"`
	Enabled *bool    `yaml:"enabled"`
	Tags    []string `yaml:"tags"`
}

type yamlSources struct {
	Sources []yamlSource `yaml:"sources"`
}

// ParseSources decodes a YAML source list. Sources without an explicit
// "enabled" key are enabled.
func ParseSources(data []byte) ([]Source, error) {
	var doc yamlSources
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources yaml: %w", err)
	}
	out := make([]Source, 0, len(doc.Sources))
	for i, s := range doc.Sources {
		if s.ID == "" {
			return nil, fmt.Errorf("source %d: id is required", i)
		}
		enabled := true
		if s.Enabled != nil {
			enabled = *s.Enabled
		}
		tags := s.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, Source{
			ID:      s.ID,
			Name:    s.Name,
			FeedURL: s.FeedURL,
			PageURL: s.PageURL,
			Enabled: enabled,
			Tags:    tags,
		})
	}
	return out, nil
}

// DefaultSources returns the built-in source list seeded on first run.
func DefaultSources() []Source {
	sources, err := ParseSources(defaultSourcesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default sources: %v", err))
	}
	return sources
}
