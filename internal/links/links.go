// Package links maintains the transcript link registry at
// .steno/transcript-links.json. The registry is additive: entries for
// sessions untouched by the current run always survive a save, and the
// document shape is shared with the rest of the steno tooling.
package links

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Registry mirrors the transcript-links.json document.
type Registry struct {
	Version     string                  `json:"version"`
	Type        string                  `json:"type"`
	GeneratedAt string                  `json:"generated_at"`
	OutputDir   string                  `json:"output_dir"`
	Sessions    map[string]SessionEntry `json:"sessions"`
}

// SessionEntry records one generated transcript.
type SessionEntry struct {
	File         string   `json:"file"`
	MessageCount int      `json:"message_count"`
	Nodes        []string `json:"nodes"`
}

// Load reads the registry at path. A missing or malformed file yields an
// empty registry; the document is additive and rebuilt-compatible.
func Load(path string) Registry {
	reg := Registry{Sessions: make(map[string]SessionEntry)}

	data, err := os.ReadFile(path)
	if err != nil {
		return reg
	}
	var loaded Registry
	if err := json.Unmarshal(data, &loaded); err != nil {
		return reg
	}
	if loaded.Sessions != nil {
		reg.Sessions = loaded.Sessions
	}
	return reg
}

// Update merges the generated entries over the existing ones and stamps the
// run metadata.
func (r *Registry) Update(outputDir string, entries map[string]SessionEntry, now time.Time) {
	r.Version = "2.0"
	r.Type = "native"
	r.GeneratedAt = now.Format(time.RFC3339)
	r.OutputDir = outputDir
	for id, entry := range entries {
		if entry.Nodes == nil {
			entry.Nodes = []string{}
		}
		r.Sessions[id] = entry
	}
}

// Save writes the registry, creating the parent directory when needed.
func (r Registry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}
