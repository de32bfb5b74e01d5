package diff

// Package diff implements the reconciliation planner. It compares the
// previously committed item order against a freshly fetched remote listing
// and classifies every item into exactly one plan bucket.

import (
	"github.com/ytget/playlist-sync/internal/model"
)

// Compute builds the reconciliation plan between the previous committed items
// and the remote listing. Item IDs are unique per side by construction.
//
// Every previous item ID lands in exactly one of {Removals, Moves, Unchanged};
// every remote item ID lands in exactly one of {Additions, Moves, Unchanged}.
// Additions and Moves are ordered by new remote position so downstream
// execution processes items in final-position order.
func Compute(prev []model.ItemRecord, remote []model.RemoteItem) model.Plan {
	oldPos := make(map[string]int, len(prev))
	for i, rec := range prev {
		oldPos[rec.ItemID] = i
	}
	newPos := make(map[string]int, len(remote))
	for i, item := range remote {
		newPos[item.ItemID] = i
	}

	plan := model.Plan{}

	for i, item := range remote {
		from, existed := oldPos[item.ItemID]
		if !existed {
			plan.Additions = append(plan.Additions, model.Addition{Item: item, Position: i})
			continue
		}
		rec := prev[from]
		if from == i {
			plan.Unchanged = append(plan.Unchanged, model.Placement{Record: rec, Position: i})
			continue
		}
		plan.Moves = append(plan.Moves, model.Move{Record: rec, From: from, To: i})
	}

	for _, rec := range prev {
		if _, stillThere := newPos[rec.ItemID]; !stillThere {
			plan.Removals = append(plan.Removals, rec)
		}
	}

	return plan
}
