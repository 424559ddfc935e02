package processor

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
)

// ManifestExistsError aborts a run before any processing starts: the
// scenes_info file is the audit trail of a previous run and is never
// silently overwritten.
type ManifestExistsError struct {
	Path string
}

func (e *ManifestExistsError) Error() string {
	return fmt.Sprintf("the scenes_info file %s already exists", e.Path)
}

// ItemID is one contributing catalog item in a manifest entry.
type ItemID struct {
	ID string `json:"id"`
}

// SceneEntry is the manifest record of one acquisition date.
type SceneEntry struct {
	ItemIDs       []ItemID `json:"item_ids"`
	NonzeroPixels float64  `json:"nonzero_pixels"`
	ValidPixels   float64  `json:"valid_pixels"`
	DataAvailable bool     `json:"data_available"`
	ErrorInfo     string   `json:"error_info"`
}

// Manifest accumulates one entry per processed date and is written
// exactly once at the end of a run.
type Manifest struct {
	Path    string
	Entries map[string]*SceneEntry
}

func NewManifest(path string) *Manifest {
	return &Manifest{Path: path, Entries: map[string]*SceneEntry{}}
}

// CheckTarget fails when the manifest file already exists. Called
// before any date is processed.
func (m *Manifest) CheckTarget() error {
	if _, err := os.Stat(m.Path); err == nil {
		return &ManifestExistsError{Path: m.Path}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check manifest target %s: %w", m.Path, err)
	}
	return nil
}

func (m *Manifest) Record(date string, entry *SceneEntry) {
	m.Entries[date] = entry
}

// Dates returns the recorded dates in ascending order.
func (m *Manifest) Dates() []string {
	dates := make([]string, 0, len(m.Entries))
	for d := range m.Entries {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Write serializes the manifest. The existence check is repeated here
// so a concurrent writer still fails loudly instead of clobbering.
func (m *Manifest) Write() error {
	if err := m.CheckTarget(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.Path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	out, err := json.MarshalIndent(m.Entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := ioutil.WriteFile(m.Path, out, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", m.Path, err)
	}
	return nil
}
