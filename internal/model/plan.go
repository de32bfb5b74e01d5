package model

// RemoteItem is one entry of a freshly fetched remote listing, validated at
// the enumerator boundary before it reaches the diff engine.
type RemoteItem struct {
	ItemID string
	Title  string
}

// Addition describes a remote item absent from the local state, to be
// materialized at the given final position.
type Addition struct {
	Item     RemoteItem
	Position int
}

// Move describes an item present on both sides whose position changed.
type Move struct {
	Record ItemRecord
	From   int
	To     int
}

// Placement pins an existing record to its unchanged position.
type Placement struct {
	Record   ItemRecord
	Position int
}

// Plan is the computed reconciliation between the previous state and a remote
// listing. Every previous item ID appears in exactly one of Removals, Moves or
// Unchanged; every remote item ID appears in exactly one of Additions, Moves
// or Unchanged. Additions and Moves follow the new remote order.
type Plan struct {
	Additions []Addition
	Removals  []ItemRecord
	Moves     []Move
	Unchanged []Placement
}

// IsEmpty reports whether the plan requires no work at all.
func (p *Plan) IsEmpty() bool {
	return len(p.Additions) == 0 && len(p.Removals) == 0 && len(p.Moves) == 0
}

// HasDestructiveChanges reports whether applying the plan deletes or renames
// existing files. Only destructive plans require a backup snapshot.
func (p *Plan) HasDestructiveChanges() bool {
	return len(p.Removals) > 0 || len(p.Moves) > 0
}
