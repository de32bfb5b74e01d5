package model

import (
	"fmt"
	"strings"
)

// ItemResult identifies one item in an update report.
type ItemResult struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Error  string `json:"error,omitempty"`
}

// UpdateReport enumerates the outcome of one synchronize or download
// invocation. On a fully aborted update the destructive buckets are empty:
// the committed state saw zero net changes even if some additions physically
// landed before the abort.
type UpdateReport struct {
	Added   []ItemResult `json:"added"`
	Removed []ItemResult `json:"removed"`
	Moved   []ItemResult `json:"moved"`
	Failed  []ItemResult `json:"failed"`
}

// NewUpdateReport creates an empty report.
func NewUpdateReport() *UpdateReport {
	return &UpdateReport{}
}

// AddSuccess records a successfully added item.
func (r *UpdateReport) AddSuccess(itemID, title string) {
	r.Added = append(r.Added, ItemResult{ItemID: itemID, Title: title})
}

// AddFailure records an item whose retrieval failed.
func (r *UpdateReport) AddFailure(itemID, title string, err error) {
	res := ItemResult{ItemID: itemID, Title: title}
	if err != nil {
		res.Error = err.Error()
	}
	r.Failed = append(r.Failed, res)
}

// AddRemoved records a deleted item.
func (r *UpdateReport) AddRemoved(itemID, title string) {
	r.Removed = append(r.Removed, ItemResult{ItemID: itemID, Title: title})
}

// AddMoved records a repositioned item.
func (r *UpdateReport) AddMoved(itemID, title string) {
	r.Moved = append(r.Moved, ItemResult{ItemID: itemID, Title: title})
}

// HasChanges reports whether any item was added, removed or repositioned.
func (r *UpdateReport) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Moved) > 0
}

// Summary returns a one-line human readable summary for CLI output.
func (r *UpdateReport) Summary() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d added, %d removed, %d moved", len(r.Added), len(r.Removed), len(r.Moved)))
	if len(r.Failed) > 0 {
		b.WriteString(fmt.Sprintf(", %d failed", len(r.Failed)))
	}
	return b.String()
}
