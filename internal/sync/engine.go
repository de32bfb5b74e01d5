package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ytget/playlist-sync/internal/backup"
	"github.com/ytget/playlist-sync/internal/diff"
	"github.com/ytget/playlist-sync/internal/model"
	"github.com/ytget/playlist-sync/internal/platform"
	"github.com/ytget/playlist-sync/internal/remote"
	"github.com/ytget/playlist-sync/internal/state"
)

// Default output format when neither the directory nor the caller dictates
// one.
const DefaultFormat = "mp3"

// Options configure a synchronization engine. All behavior is passed in
// explicitly; the engine never reads ambient configuration.
type Options struct {
	// Format is the output format for newly added items when the directory
	// contents do not already dictate one.
	Format string

	// QualityCeiling caps video resolution (height in pixels) for video
	// formats; 0 means no ceiling.
	QualityCeiling int

	// AllowFullRemoval permits an update that would delete every local item
	// because the remote collection became empty. Without it such an update
	// aborts with ErrFullRemovalBlocked.
	AllowFullRemoval bool
}

// Engine drives synchronization of local directories against remote
// collections. Updates for the same directory are serialized; distinct
// directories may be processed concurrently.
type Engine struct {
	enumerator remote.Enumerator
	retriever  remote.Retriever
	opts       Options
	logger     *zap.Logger

	// locks holds one mutex per directory and is never pruned: entries are a
	// few dozen bytes each and bounded by the number of distinct directories
	// the process ever touches.
	locksMutex sync.Mutex
	locks      map[string]*sync.Mutex
}

// NewEngine creates a synchronization engine.
func NewEngine(enumerator remote.Enumerator, retriever remote.Retriever, opts Options, logger *zap.Logger) *Engine {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		enumerator: enumerator,
		retriever:  retriever,
		opts:       opts,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Synchronize reconciles the directory against the current remote listing
// and applies the resulting plan transactionally. The returned report
// enumerates exactly which items were added, removed, repositioned or failed.
func (e *Engine) Synchronize(ctx context.Context, dir, collectionID string) (*model.UpdateReport, error) {
	return e.run(ctx, dir, collectionID, false)
}

// Download performs the first-time download of a collection: a synchronize
// against an empty prior state. It refuses to run when the directory already
// carries a committed state document.
func (e *Engine) Download(ctx context.Context, dir, collectionID string) (*model.UpdateReport, error) {
	return e.run(ctx, dir, collectionID, true)
}

func (e *Engine) run(ctx context.Context, dir, collectionID string, fresh bool) (*model.UpdateReport, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	unlock := e.lockDir(absDir)
	defer unlock()

	if err := platform.CreateDirectoryIfNotExists(absDir); err != nil {
		return nil, &FilesystemError{Phase: PhasePrepare, Path: absDir, Err: err}
	}
	if err := e.recoverStale(absDir); err != nil {
		return nil, err
	}
	if err := cleanStaging(absDir); err != nil {
		return nil, &FilesystemError{Phase: PhasePrepare, Path: absDir, Err: err}
	}

	var prev *model.CollectionState
	if fresh {
		if state.Exists(absDir) {
			return nil, ErrAlreadyDownloaded
		}
		prev = model.NewCollectionState(collectionID, "")
	} else {
		prev, err = state.Load(absDir)
		if err != nil {
			return nil, err
		}
		if prev.CollectionID != "" && prev.CollectionID != collectionID {
			return nil, fmt.Errorf("directory %s tracks collection %s, not %s", absDir, prev.CollectionID, collectionID)
		}
		if err := state.Verify(absDir, prev); err != nil {
			return nil, err
		}
	}

	listing, err := e.enumerator.ListItems(ctx, collectionID)
	if err != nil {
		// Listing failed: abort with no local mutation.
		return nil, err
	}

	excluded, remaining := filterExcluded(prev.ExcludedItemIDs, listing.Items)
	if len(excluded) > 0 {
		e.logger.Info("Skipping permanently excluded items",
			zap.String("collection_id", collectionID),
			zap.Int("count", len(excluded)))
		listing.Items = remaining
	}

	if len(listing.Items) == 0 && len(prev.Items) > 0 && !e.opts.AllowFullRemoval {
		return nil, ErrFullRemovalBlocked
	}

	plan := diff.Compute(prev.Items, listing.Items)
	e.logger.Info("Computed update plan",
		zap.String("collection_id", collectionID),
		zap.String("dir", absDir),
		zap.Int("additions", len(plan.Additions)),
		zap.Int("removals", len(plan.Removals)),
		zap.Int("moves", len(plan.Moves)),
		zap.Int("unchanged", len(plan.Unchanged)))

	x := &executor{
		dir:       absDir,
		retriever: e.retriever,
		format:    e.resolveFormat(absDir, prev),
		quality:   e.opts.QualityCeiling,
		excluded:  excluded,
		logger:    e.logger,
	}
	return x.apply(ctx, collectionID, prev, listing, plan)
}

// RetrieveItem materializes a single item into dir, outside of any collection
// state: a one-off download. The finished artifact keeps its item-ID name and
// its path is returned.
func (e *Engine) RetrieveItem(ctx context.Context, dir, itemID string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	unlock := e.lockDir(absDir)
	defer unlock()

	if err := platform.CreateDirectoryIfNotExists(absDir); err != nil {
		return "", &FilesystemError{Phase: PhasePrepare, Path: absDir, Err: err}
	}

	staging := filepath.Join(absDir, stagingPrefix+newTransientID())
	defer os.RemoveAll(staging)

	artifact, err := e.retriever.Materialize(ctx, remote.Request{
		ItemID:         itemID,
		TargetFormat:   e.opts.Format,
		QualityCeiling: e.opts.QualityCeiling,
		StagingDir:     staging,
	})
	if err != nil {
		return "", err
	}

	target := filepath.Join(absDir, filepath.Base(artifact))
	if err := os.Rename(artifact, target); err != nil {
		return "", &FilesystemError{Phase: PhasePrepare, Path: target, Err: err}
	}

	e.logger.Info("Retrieved single item",
		zap.String("item_id", itemID),
		zap.String("path", target))
	return target, nil
}

// filterExcluded splits the recorded exclusions against a fresh listing:
// exclusions for items still present remotely are kept and their items dropped
// from the listing; exclusions for items gone from the remote side are pruned.
func filterExcluded(recorded []string, items []model.RemoteItem) (kept []string, remaining []model.RemoteItem) {
	if len(recorded) == 0 {
		return nil, items
	}

	set := make(map[string]struct{}, len(recorded))
	for _, id := range recorded {
		set[id] = struct{}{}
	}

	remaining = make([]model.RemoteItem, 0, len(items))
	for _, item := range items {
		if _, ok := set[item.ItemID]; ok {
			kept = append(kept, item.ItemID)
			continue
		}
		remaining = append(remaining, item)
	}
	return kept, remaining
}

// lockDir serializes updates per directory. The returned func releases the
// lock.
func (e *Engine) lockDir(absDir string) func() {
	e.locksMutex.Lock()
	mu, ok := e.locks[absDir]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[absDir] = mu
	}
	e.locksMutex.Unlock()

	mu.Lock()
	return mu.Unlock
}

// recoverStale restores any backup left behind by a crashed run before the
// directory is touched again. With several stale backups the oldest snapshot
// wins, since it is closest to the last committed state.
func (e *Engine) recoverStale(absDir string) error {
	stale, err := backup.FindStale(absDir)
	if err != nil {
		return &FilesystemError{Phase: PhasePrepare, Path: absDir, Err: err}
	}
	for i := len(stale) - 1; i >= 0; i-- {
		e.logger.Warn("Found stale backup from an interrupted update, restoring",
			zap.String("dir", absDir),
			zap.String("backup", stale[i]))
		if err := backup.Open(absDir, stale[i]).Restore(); err != nil {
			return &RestoreFailedError{BackupDir: stale[i], Err: err}
		}
	}
	return nil
}

// cleanStaging removes leftover staging directories from earlier runs.
func cleanStaging(absDir string) error {
	matches, err := filepath.Glob(filepath.Join(absDir, stagingPrefix+"*"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.RemoveAll(match); err != nil {
			return err
		}
	}
	return nil
}

// resolveFormat picks the output format for new items: the committed records
// win, then the formats already on disk, then the configured default.
func (e *Engine) resolveFormat(absDir string, prev *model.CollectionState) string {
	if len(prev.Items) > 0 && prev.Items[0].Format != "" {
		return prev.Items[0].Format
	}
	if detected := platform.DetectFormat(absDir); detected != "" {
		return detected
	}
	return e.opts.Format
}
