// Package registry persists the set of tracked collections: a small JSON
// document in the user's configuration directory mapping a display name to
// the collection URL and the local directory it synchronizes into.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ytget/playlist-sync/internal/platform"
)

// Registry file location under the user configuration directory.
const (
	AppDirName = "playlist-sync"
	Filename   = "playlists.json"
)

// Registry errors
var (
	ErrDuplicateName = errors.New("collection name already registered")
	ErrDuplicateURL  = errors.New("collection url already registered")
	ErrNotFound      = errors.New("collection not registered")
)

// Entry is one tracked collection.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Dir  string `json:"dir"`
}

// Store reads and writes the registry document. The zero value is not usable;
// construct one with New or Open.
type Store struct {
	path string
}

// New creates a store backed by the default per-user location.
func New() (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return Open(filepath.Join(configDir, AppDirName, Filename)), nil
}

// Open creates a store backed by an explicit file path.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the registry document.
func (s *Store) Path() string {
	return s.path
}

// List returns all registered collections sorted by name. A missing registry
// file yields an empty list.
func (s *Store) List() ([]Entry, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Find returns the entry registered under the given name.
func (s *Store) Find(name string) (Entry, error) {
	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Add registers a collection. The canonical form of the URL is stored, and
// both names and URLs must be unique.
func (s *Store) Add(name, url, dir string) error {
	canonical, err := platform.CanonicalPlaylistURL(url)
	if err != nil {
		return err
	}

	entries, err := s.load()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		if e.URL == canonical {
			return fmt.Errorf("%w: %s", ErrDuplicateURL, canonical)
		}
	}

	entries = append(entries, Entry{Name: name, URL: canonical, Dir: dir})
	return s.save(entries)
}

// Remove deletes a collection from the registry. The synchronized directory
// itself is left alone.
func (s *Store) Remove(name string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}

	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.Name == name {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.save(kept)
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read registry %s: %w", s.path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *Store) save(entries []Entry) error {
	dir := filepath.Dir(s.path)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	data = append(data, '\n')
	return platform.WriteFileAtomic(dir, filepath.Base(s.path), data)
}
