package state

// Package state implements the persisted per-collection record: a hidden JSON
// document stored alongside the media files, owned exclusively by the
// synchronization engine and replaced atomically on commit.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ytget/playlist-sync/internal/model"
	"github.com/ytget/playlist-sync/internal/platform"
)

// Filename is the reserved name of the state document inside a collection
// directory.
const Filename = ".playlist-sync.json"

// ErrCorruptState marks a state document that is unreadable or references
// files missing from the directory. No automatic repair is attempted; the
// condition requires manual resolution.
var ErrCorruptState = errors.New("corrupt collection state")

// CorruptStateError carries the location and cause of a corruption signal.
type CorruptStateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt collection state at %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt collection state at %s: %s", e.Path, e.Reason)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

func (e *CorruptStateError) Is(target error) bool { return target == ErrCorruptState }

// Path returns the location of the state document for a collection directory.
func Path(dir string) string {
	return filepath.Join(dir, Filename)
}

// Exists reports whether a state document is present in dir.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// Load reads the state document from dir. A missing document is not an error:
// it yields an empty state, the first-time download case. An unreadable or
// structurally invalid document yields a CorruptStateError.
func Load(dir string) (*model.CollectionState, error) {
	path := Path(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewCollectionState("", ""), nil
		}
		return nil, &CorruptStateError{Path: path, Reason: "unreadable state document", Err: err}
	}

	var st model.CollectionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, &CorruptStateError{Path: path, Reason: "invalid state document", Err: err}
	}

	seen := make(map[string]struct{}, len(st.Items))
	for _, item := range st.Items {
		if item.ItemID == "" || item.LocalFilename == "" {
			return nil, &CorruptStateError{Path: path, Reason: fmt.Sprintf("record %q missing required fields", item.ItemID)}
		}
		if _, dup := seen[item.ItemID]; dup {
			return nil, &CorruptStateError{Path: path, Reason: fmt.Sprintf("duplicate item id %q", item.ItemID)}
		}
		seen[item.ItemID] = struct{}{}
	}

	return &st, nil
}

// Verify cross-checks every recorded filename against the directory. A record
// whose file is gone is a corruption signal: the committed state claims an
// artifact that no longer exists.
func Verify(dir string, st *model.CollectionState) error {
	for _, item := range st.Items {
		path := filepath.Join(dir, item.LocalFilename)
		if _, err := os.Stat(path); err != nil {
			return &CorruptStateError{
				Path:   Path(dir),
				Reason: fmt.Sprintf("record %q references missing file %q", item.ItemID, item.LocalFilename),
				Err:    err,
			}
		}
	}
	return nil
}

// Save atomically replaces the state document in dir.
func Save(dir string, st *model.CollectionState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection state: %w", err)
	}
	data = append(data, '\n')
	return platform.WriteFileAtomic(dir, Filename, data)
}
