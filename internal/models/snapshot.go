// Package models holds the exported forms of the client's state.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/codetrack/internal/platform"
	"gopkg.in/yaml.v3"
)

// Format of an exported snapshot.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// PlatformEntry is one platform in an export. Pending verification codes are
// never exported.
type PlatformEntry struct {
	Platform string         `yaml:"platform" json:"platform"`
	Name     string         `yaml:"name" json:"name"`
	Status   string         `yaml:"status" json:"status"`
	Username string         `yaml:"username,omitempty" json:"username,omitempty"`
	Stats    map[string]any `yaml:"stats,omitempty" json:"stats,omitempty"`
}

// Export is a point-in-time report of linked platforms and their aggregates.
type Export struct {
	GeneratedAt time.Time        `yaml:"generated_at" json:"generatedAt"`
	Account     string           `yaml:"account,omitempty" json:"account,omitempty"`
	Summary     platform.Summary `yaml:"summary" json:"summary"`
	Platforms   []PlatformEntry  `yaml:"platforms" json:"platforms"`
}

// NewExport builds an export from a registry snapshot.
func NewExport(snap platform.Snapshot, account string, now time.Time) Export {
	e := Export{
		GeneratedAt: now.UTC(),
		Account:     account,
		Summary:     platform.Summarize(snap),
		Platforms:   make([]PlatformEntry, 0, len(platform.All())),
	}
	for _, p := range platform.All() {
		st := snap.Get(p)
		entry := PlatformEntry{
			Platform: p.String(),
			Name:     p.DisplayName(),
			Status:   st.Status().String(),
			Username: platform.Username(st),
		}
		if v, ok := st.(platform.Verified); ok {
			entry.Stats = v.Stats.Clone()
		}
		e.Platforms = append(e.Platforms, entry)
	}
	return e
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export file extension %q (use .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Marshal encodes the export.
func (e Export) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(e)
	case FormatJSON:
		return json.MarshalIndent(e, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile writes the export to path in the format its extension names.
func WriteFile(path string, e Export) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := e.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
