package backup

// Package backup implements the directory snapshot used to make destructive
// update phases transactional. A snapshot is a full copy of the working
// directory stored under a hidden sibling path; it is discarded on commit,
// restored-then-discarded on abort, and deliberately left behind when the
// process dies mid-transaction so the next run can recover.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/playlist-sync/internal/platform"
)

// Backup directory naming: ".<dirname>.backup-<id>" next to the working
// directory.
const (
	namePrefix = "."
	nameInfix  = ".backup-"
)

// Handle refers to one snapshot of a working directory.
type Handle struct {
	workDir   string
	backupDir string
}

// Dir returns the location of the backup directory.
func (h *Handle) Dir() string {
	return h.backupDir
}

// Snapshot copies the full contents of workDir into a uniquely named hidden
// sibling directory. It must complete before any destructive operation
// begins; on failure no backup directory is left behind.
func Snapshot(workDir string) (*Handle, error) {
	backupDir := siblingPath(workDir, newBackupID())

	if err := platform.CopyDir(workDir, backupDir); err != nil {
		os.RemoveAll(backupDir)
		return nil, fmt.Errorf("failed to snapshot %s: %w", workDir, err)
	}

	return &Handle{workDir: workDir, backupDir: backupDir}, nil
}

// Open adopts an existing backup directory, typically one found by FindStale
// after a crashed run.
func Open(workDir, backupDir string) *Handle {
	return &Handle{workDir: workDir, backupDir: backupDir}
}

// Commit discards the snapshot after a successful update.
func (h *Handle) Commit() error {
	if err := os.RemoveAll(h.backupDir); err != nil {
		return fmt.Errorf("failed to discard backup %s: %w", h.backupDir, err)
	}
	return nil
}

// Restore replaces the working directory contents with the snapshot, then
// discards the snapshot. Calling Restore again after it succeeded is a no-op,
// so a retried recovery leaves the directory in the same restored state.
func (h *Handle) Restore() error {
	if _, err := os.Stat(h.backupDir); os.IsNotExist(err) {
		// Already restored and discarded.
		return nil
	}

	if err := os.MkdirAll(h.workDir, platform.DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to recreate %s: %w", h.workDir, err)
	}
	if err := platform.RemoveDirContents(h.workDir); err != nil {
		return fmt.Errorf("failed to clear %s before restore: %w", h.workDir, err)
	}
	if err := platform.CopyDir(h.backupDir, h.workDir); err != nil {
		return fmt.Errorf("failed to restore %s from %s: %w", h.workDir, h.backupDir, err)
	}

	// Only discard the snapshot once the copy is fully back in place.
	if err := os.RemoveAll(h.backupDir); err != nil {
		return fmt.Errorf("restored %s but failed to discard backup %s: %w", h.workDir, h.backupDir, err)
	}
	return nil
}

// FindStale returns backup directories left behind for workDir by a crashed
// run, oldest first. Their presence marks an unresolved transaction that must
// be restored before the directory is touched again.
func FindStale(workDir string) ([]string, error) {
	parent := filepath.Dir(workDir)
	base := filepath.Base(workDir)
	prefix := namePrefix + base + nameInfix

	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var stale []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			stale = append(stale, filepath.Join(parent, entry.Name()))
		}
	}
	return stale, nil
}

// siblingPath builds the hidden backup path adjacent to workDir.
func siblingPath(workDir, id string) string {
	parent := filepath.Dir(workDir)
	base := filepath.Base(workDir)
	return filepath.Join(parent, namePrefix+base+nameInfix+id)
}

// newBackupID generates a unique, time-ordered backup directory suffix.
func newBackupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return id.String()
}
