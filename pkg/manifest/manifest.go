package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"imgcrawler/pkg/logger"
)

// FileName is the manifest's name inside the output directory
const FileName = "manifest.json"

// Version is written into every manifest
const Version = 1

// Manifest records one finished crawl job
type Manifest struct {
	StartURL   string    `json:"start_url"`
	Pages      []string  `json:"pages"`
	Discovered int       `json:"discovered"`
	Saved      []Entry   `json:"saved"`
	Failed     []Failure `json:"failed,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Version    int       `json:"version"`
}

// Entry is a saved image
type Entry struct {
	URL  string `json:"url"`
	File string `json:"file"`
}

// Failure is an image that could not be saved
type Failure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Manager reads and writes the manifest of one output directory
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager for dir; a nil logger uses the global one
func NewManager(dir string, log logger.Logger) *Manager {
	return &Manager{
		path:   filepath.Join(dir, FileName),
		logger: logger.OrGlobal(log),
	}
}

// Path returns the manifest file path
func (m *Manager) Path() string {
	return m.path
}

// Load reads the manifest, returning nil when none exists
func (m *Manager) Load() (*Manifest, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var manifest Manifest
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &manifest, nil
}

// Save writes the manifest atomically through a temporary file in the same
// directory
func (m *Manager) Save(manifest *Manifest) error {
	if manifest.Version == 0 {
		manifest.Version = Version
	}
	if manifest.FinishedAt.IsZero() {
		manifest.FinishedAt = time.Now()
	}

	file, err := os.CreateTemp(filepath.Dir(m.path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	tempPath := file.Name()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}

	m.logger.DebugWithFields("Manifest saved", map[string]interface{}{
		"path":  m.path,
		"saved": len(manifest.Saved),
	})
	return nil
}

// Exists reports whether a manifest file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Delete removes the manifest; a missing file is not an error
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	return nil
}

// Files returns the saved file names keyed by URL
func (mf *Manifest) Files() map[string]string {
	files := make(map[string]string, len(mf.Saved))
	for _, e := range mf.Saved {
		files[e.URL] = e.File
	}
	return files
}
