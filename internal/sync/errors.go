package sync

import (
	"errors"
	"fmt"
)

// Phase identifies the update phase in which a filesystem operation failed.
type Phase string

const (
	PhasePrepare Phase = "prepare"
	PhaseBackup  Phase = "backup"
	PhaseRemove  Phase = "remove"
	PhaseRename  Phase = "rename"
	PhaseCommit  Phase = "commit"
	PhaseDiscard Phase = "discard"
)

// ErrFilesystemFailure marks a failed local filesystem operation during an
// update. From the backup phase onward it unwinds the whole transaction via
// restore.
var ErrFilesystemFailure = errors.New("filesystem failure")

// ErrRestoreFailed marks a failure of the recovery path itself. The backup
// directory is left in place for manual recovery.
var ErrRestoreFailed = errors.New("restore failed")

// ErrFullRemovalBlocked is returned when the remote collection is empty but
// the local directory still has items and full removal was not explicitly
// allowed.
var ErrFullRemovalBlocked = errors.New("remote collection is empty; refusing to remove all local items without explicit confirmation")

// ErrAlreadyDownloaded is returned by Download when the directory already
// carries a committed state document.
var ErrAlreadyDownloaded = errors.New("collection already downloaded; use synchronize to update it")

// FilesystemError wraps a failed filesystem operation with the phase it
// belongs to.
type FilesystemError struct {
	Phase Phase
	Path  string
	Err   error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem failure in %s phase (%s): %v", e.Phase, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func (e *FilesystemError) Is(target error) bool { return target == ErrFilesystemFailure }

// RestoreFailedError reports that recovery from backup failed. The backup
// directory named here is deliberately left on disk.
type RestoreFailedError struct {
	BackupDir string
	Err       error
}

func (e *RestoreFailedError) Error() string {
	return fmt.Sprintf("restore failed: %v; backup left in place at %s for manual recovery", e.Err, e.BackupDir)
}

func (e *RestoreFailedError) Unwrap() error { return e.Err }

func (e *RestoreFailedError) Is(target error) bool { return target == ErrRestoreFailed }
