package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "imgcrawler/pkg/errors"
)

// partPrefix marks in-flight temp files so a rescan ignores them
const partPrefix = ".imgcrawler-"

// Manager owns a job's output directory and its name registry
type Manager struct {
	outputDir string
	registry  *Registry
}

// NewManager creates the output directory (recursively) and, when
// preserveExisting is set, seeds the registry with the files already in it
func NewManager(outputDir string, preserveExisting bool) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create output directory")
	}

	manager := &Manager{
		outputDir: outputDir,
		registry:  NewRegistry(),
	}

	if preserveExisting {
		if err := manager.scanExistingFiles(); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to scan existing files")
		}
	}

	return manager, nil
}

// scanExistingFiles claims every regular file already in the output directory
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), partPrefix) {
			continue
		}
		m.registry.Reserve(entry.Name())
	}

	return nil
}

// Save reserves a unique name derived from name and streams r into it.
// Data goes to a temp file in the same directory and is renamed into place,
// so a failed save never leaves a partial file. It returns the final filename.
func (m *Manager) Save(r io.Reader, name string) (string, int64, error) {
	filename := m.registry.Reserve(name)

	size, err := m.write(r, filename)
	if err != nil {
		m.registry.Release(filename)
		return "", 0, err
	}
	return filename, size, nil
}

func (m *Manager) write(r io.Reader, filename string) (int64, error) {
	out, err := os.CreateTemp(m.outputDir, partPrefix+"*.part")
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}
	tempFile := out.Name()

	size, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to save image data")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, filepath.Join(m.outputDir, filename)); err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to rename temporary file")
	}

	return size, nil
}

// Dir returns the output directory path
func (m *Manager) Dir() string {
	return m.outputDir
}

// Registry returns the name registry backing this manager
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Path returns the absolute location of a saved filename
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.outputDir, filename)
}
