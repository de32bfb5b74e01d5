package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ytget/playlist-sync/internal/backup"
	"github.com/ytget/playlist-sync/internal/model"
	"github.com/ytget/playlist-sync/internal/ordering"
	"github.com/ytget/playlist-sync/internal/platform"
	"github.com/ytget/playlist-sync/internal/remote"
	"github.com/ytget/playlist-sync/internal/state"
)

// Transient names inside the working directory. Anything matching these
// patterns is a leftover of an interrupted run and is swept on the next one.
const (
	stagingPrefix     = ".staging-"
	tempRenameSuffix  = ".moving"
	transientNameMark = "."
)

// executor applies one computed plan to one directory. Phases run in a strict
// order: additions, backup, removals, renames, state commit, backup discard.
// Any failure after the backup is taken rolls the directory back to its
// pre-update contents.
type executor struct {
	dir       string
	retriever remote.Retriever
	format    string
	quality   int
	logger    *zap.Logger

	// excluded carries the surviving exclusions from the previous state;
	// newlyExcluded collects permanent retrieval failures from this run. Both
	// are persisted on commit.
	excluded      []string
	newlyExcluded []string
}

// rename is one pending filename change, applied in two passes so that
// position swaps never clobber each other.
type rename struct {
	record *model.ItemRecord
	from   string
	to     string
	temp   string
}

func (x *executor) apply(ctx context.Context, collectionID string, prev *model.CollectionState, listing remote.Listing, plan model.Plan) (*model.UpdateReport, error) {
	report := model.NewUpdateReport()

	// Final layout, indexed by new position. Slots of failed additions stay
	// nil and are compacted away before renumbering.
	final := make([]*model.ItemRecord, len(listing.Items))
	for _, p := range plan.Unchanged {
		rec := p.Record
		final[p.Position] = &rec
	}
	for _, m := range plan.Moves {
		rec := m.Record
		final[m.To] = &rec
	}

	// Phase 1: materialize additions. Failures here are per-item and never
	// abort the update; the item is simply reported and retried next run.
	if len(plan.Additions) > 0 {
		if err := x.materializeAdditions(ctx, prev, listing, plan.Additions, final, report); err != nil {
			return report, err
		}
	}

	if err := ctx.Err(); err != nil {
		// Cancelled before any destructive phase: committed state untouched.
		return report, err
	}

	// Compact and renumber. Positions shift when an addition failed, and the
	// token width changes when the item count crosses a power of ten; both
	// fall out of comparing each record's name to its desired final name.
	records := make([]model.ItemRecord, 0, len(final))
	for _, rec := range final {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	width := ordering.Width(len(records))

	var renames []rename
	for i := range records {
		desired := ordering.Filename(i, width, records[i].DisplayTitle, records[i].Format)
		if records[i].LocalFilename != desired {
			renames = append(renames, rename{
				record: &records[i],
				from:   records[i].LocalFilename,
				to:     desired,
			})
		}
	}

	destructive := len(plan.Removals) > 0 || len(renames) > 0

	// Phase 2: snapshot before the first destructive operation. Non-destructive
	// updates skip the backup entirely.
	var snap *backup.Handle
	if destructive {
		var err error
		snap, err = backup.Snapshot(x.dir)
		if err != nil {
			return report, &FilesystemError{Phase: PhaseBackup, Path: x.dir, Err: err}
		}
	}

	// Phase 3: removals.
	for _, rec := range plan.Removals {
		path := filepath.Join(x.dir, rec.LocalFilename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return x.abort(snap, report, &FilesystemError{Phase: PhaseRemove, Path: path, Err: err})
		}
		report.AddRemoved(rec.ItemID, rec.DisplayTitle)
	}

	// Phase 4: renames, two passes. Every source is moved to a unique
	// transient name first, so a pair of items swapping positions never
	// overwrites one another.
	for i := range renames {
		renames[i].temp = transientNameMark + newTransientID() + tempRenameSuffix
		from := filepath.Join(x.dir, renames[i].from)
		temp := filepath.Join(x.dir, renames[i].temp)
		if err := os.Rename(from, temp); err != nil {
			return x.abort(snap, report, &FilesystemError{Phase: PhaseRename, Path: from, Err: err})
		}
	}
	for i := range renames {
		temp := filepath.Join(x.dir, renames[i].temp)
		to := filepath.Join(x.dir, renames[i].to)
		if err := os.Rename(temp, to); err != nil {
			return x.abort(snap, report, &FilesystemError{Phase: PhaseRename, Path: to, Err: err})
		}
		renames[i].record.LocalFilename = renames[i].to
	}

	// Report moves from committed positions, not the raw plan: a failed
	// addition can compact an item back to its original slot, in which case
	// nothing actually moved.
	oldPos := make(map[string]int, len(prev.Items))
	for i, rec := range prev.Items {
		oldPos[rec.ItemID] = i
	}
	for i := range records {
		if from, ok := oldPos[records[i].ItemID]; ok && from != i {
			report.AddMoved(records[i].ItemID, records[i].DisplayTitle)
		}
	}

	// Phase 5: commit the new state document. This is the transaction's
	// point of no return.
	title := listing.Title
	if title == "" {
		title = prev.Title
	}
	excluded := append(append([]string{}, x.excluded...), x.newlyExcluded...)
	sort.Strings(excluded)
	next := &model.CollectionState{
		CollectionID:    collectionID,
		Title:           title,
		Items:           records,
		ExcludedItemIDs: excluded,
	}
	if err := state.Save(x.dir, next); err != nil {
		return x.abort(snap, report, &FilesystemError{Phase: PhaseCommit, Path: state.Path(x.dir), Err: err})
	}

	// Phase 6: discard the backup. The update is already durable; a failure
	// here leaves a stale backup that the next run restores, re-running this
	// update's effects from the prior state.
	if snap != nil {
		if err := snap.Commit(); err != nil {
			return report, &FilesystemError{Phase: PhaseDiscard, Path: snap.Dir(), Err: err}
		}
	}

	x.logger.Info("Update committed",
		zap.String("collection_id", collectionID),
		zap.String("dir", x.dir),
		zap.String("summary", report.Summary()))
	return report, nil
}

// materializeAdditions retrieves each new item into a staging directory and
// moves the finished artifact into its final place. Files already present
// under an addition's target name are adopted without re-retrieval, which
// makes an interrupted first download resumable.
func (x *executor) materializeAdditions(ctx context.Context, prev *model.CollectionState, listing remote.Listing, additions []model.Addition, final []*model.ItemRecord, report *model.UpdateReport) error {
	staging := filepath.Join(x.dir, stagingPrefix+newTransientID())
	if err := platform.CreateDirectoryIfNotExists(staging); err != nil {
		return &FilesystemError{Phase: PhasePrepare, Path: staging, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			x.logger.Warn("Failed to remove staging directory", zap.String("path", staging), zap.Error(err))
		}
	}()

	// Names owned by committed records must never be adopted or overwritten
	// by an addition, even when titles collide.
	prevNames := make(map[string]struct{}, len(prev.Items))
	for _, item := range prev.Items {
		prevNames[item.LocalFilename] = struct{}{}
	}

	width := ordering.Width(len(listing.Items))

	for _, add := range additions {
		if err := ctx.Err(); err != nil {
			return err
		}

		title := add.Item.Title
		target := ordering.Filename(add.Position, width, title, x.format)
		if _, owned := prevNames[target]; owned {
			title = fmt.Sprintf("%s [%s]", add.Item.Title, add.Item.ItemID)
			target = ordering.Filename(add.Position, width, title, x.format)
		}

		targetPath := filepath.Join(x.dir, target)
		if info, err := os.Stat(targetPath); err == nil && info.Mode().IsRegular() {
			x.logger.Info("Adopting existing file for new item",
				zap.String("item_id", add.Item.ItemID),
				zap.String("filename", target))
			final[add.Position] = &model.ItemRecord{
				ItemID:        add.Item.ItemID,
				DisplayTitle:  title,
				LocalFilename: target,
				Format:        x.format,
			}
			report.AddSuccess(add.Item.ItemID, add.Item.Title)
			continue
		}

		artifact, err := x.retriever.Materialize(ctx, remote.Request{
			ItemID:         add.Item.ItemID,
			TargetFormat:   x.format,
			QualityCeiling: x.quality,
			StagingDir:     staging,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var rerr *remote.RetrievalError
			if errors.As(err, &rerr) && rerr.Permanent {
				x.logger.Warn("Item permanently unavailable, excluding from future updates",
					zap.String("item_id", add.Item.ItemID),
					zap.String("title", add.Item.Title),
					zap.Error(err))
				x.newlyExcluded = append(x.newlyExcluded, add.Item.ItemID)
			} else {
				x.logger.Warn("Failed to retrieve item",
					zap.String("item_id", add.Item.ItemID),
					zap.String("title", add.Item.Title),
					zap.Error(err))
			}
			report.AddFailure(add.Item.ItemID, add.Item.Title, err)
			continue
		}

		// The finished container may differ from the requested format; the
		// recorded name always matches what actually landed.
		format := strings.TrimPrefix(filepath.Ext(artifact), ".")
		if format != x.format {
			target = ordering.Filename(add.Position, width, title, format)
			targetPath = filepath.Join(x.dir, target)
		}

		if err := os.Rename(artifact, targetPath); err != nil {
			x.logger.Warn("Failed to move finished artifact into place",
				zap.String("item_id", add.Item.ItemID),
				zap.String("path", targetPath),
				zap.Error(err))
			report.AddFailure(add.Item.ItemID, add.Item.Title, err)
			continue
		}

		final[add.Position] = &model.ItemRecord{
			ItemID:        add.Item.ItemID,
			DisplayTitle:  title,
			LocalFilename: target,
			Format:        format,
		}
		report.AddSuccess(add.Item.ItemID, add.Item.Title)
	}

	return nil
}

// abort rolls the directory back to its pre-update contents. The report's
// destructive buckets are cleared since their effects were undone; additions
// were snapshotted with the directory and survive the restore.
func (x *executor) abort(snap *backup.Handle, report *model.UpdateReport, cause error) (*model.UpdateReport, error) {
	report.Removed = nil
	report.Moved = nil

	if snap != nil {
		if err := snap.Restore(); err != nil {
			return report, &RestoreFailedError{BackupDir: snap.Dir(), Err: err}
		}
		x.logger.Warn("Update aborted, directory restored from backup", zap.String("dir", x.dir), zap.Error(cause))
	}
	return report, cause
}

// newTransientID generates a unique, time-ordered suffix for staging and
// temporary rename names.
func newTransientID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return id.String()
}
