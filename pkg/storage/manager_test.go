package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "imgcrawler/pkg/errors"
)

func TestRegistryReserve(t *testing.T) {
	r := NewRegistry()

	got := []string{r.Reserve("photo.jpg"), r.Reserve("photo.jpg"), r.Reserve("photo.jpg")}
	assert.Equal(t, []string{"photo.jpg", "photo-1.jpg", "photo-2.jpg"}, got)
	assert.Equal(t, 3, r.Len())
}

func TestRegistryReserveEdgeNames(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"no extension", "image", "image-1"},
		{"dotfile", ".hidden", ".hidden-1"},
		{"double extension", "archive.tar.gz", "archive.tar-1.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			assert.Equal(t, tt.first, r.Reserve(tt.first))
			assert.Equal(t, tt.second, r.Reserve(tt.first))
		})
	}
}

func TestRegistrySkipsNaturallyTakenSuffix(t *testing.T) {
	r := NewRegistry()
	r.Reserve("photo-1.jpg")
	r.Reserve("photo.jpg")

	assert.Equal(t, "photo-2.jpg", r.Reserve("photo.jpg"))
}

func TestRegistryIgnoresCase(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "Photo.JPG", r.Reserve("Photo.JPG"))
	assert.Equal(t, "photo-1.jpg", r.Reserve("photo.jpg"))
	assert.Equal(t, "PHOTO-2.jpg", r.Reserve("PHOTO.jpg"))
	assert.True(t, r.Contains("photo.jpg"))

	r.Release("PHOTO.JPG")
	assert.False(t, r.Contains("Photo.JPG"))
	assert.Equal(t, "photo.JPG", r.Reserve("photo.JPG"))
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry()
	name := r.Reserve("a.png")
	r.Release(name)

	assert.False(t, r.Contains("a.png"))
	assert.Equal(t, "a.png", r.Reserve("a.png"))
}

func TestRegistryConcurrentReserve(t *testing.T) {
	r := NewRegistry()

	const workers = 50
	names := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i] = r.Reserve("img.png")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Fatalf("Name %s reserved twice", n)
		}
		seen[n] = true
	}
	assert.True(t, seen["img.png"])
	assert.True(t, seen[fmt.Sprintf("img-%d.png", workers-1)])
}

func TestManagerSave(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "images")

	manager, err := NewManager(tempDir, false)
	require.NoError(t, err)

	data := []byte("test image data")
	file, size, err := manager.Save(bytes.NewReader(data), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", file)
	assert.Equal(t, int64(len(data)), size)

	content, err := os.ReadFile(manager.Path(file))
	require.NoError(t, err)
	assert.Equal(t, data, content)

	file, _, err = manager.Save(bytes.NewReader(data), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo-1.jpg", file)

	assertNoPartFiles(t, tempDir)
}

func TestManagerIdempotentDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := NewManager(dir, false)
	require.NoError(t, err)
	_, err = NewManager(dir, false)
	require.NoError(t, err)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestManagerSaveFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, false)
	require.NoError(t, err)

	_, _, err = manager.Save(failingReader{}, "broken.jpg")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))

	assert.False(t, manager.Registry().Contains("broken.jpg"))
	_, statErr := os.Stat(filepath.Join(dir, "broken.jpg"))
	assert.True(t, os.IsNotExist(statErr))
	assertNoPartFiles(t, dir)
}

func TestManagerPreserveExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".imgcrawler-123.part"), []byte("x"), 0644))

	manager, err := NewManager(dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, manager.Registry().Len())

	file, _, err := manager.Save(strings.NewReader("new"), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo-1.jpg", file)

	old, err := os.ReadFile(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestManagerOverwritesWithoutPreserve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("old"), 0644))

	manager, err := NewManager(dir, false)
	require.NoError(t, err)

	file, _, err := manager.Save(strings.NewReader("new"), "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", file)

	content, err := os.ReadFile(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestManagerConcurrentSave(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := manager.Save(strings.NewReader(fmt.Sprint(i)), "img.png")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Len(t, names, 20)
	assert.Contains(t, names, "img.png")
	assert.Contains(t, names, "img-19.png")
}

func assertNoPartFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, partPrefix+"*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
