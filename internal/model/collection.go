package model

// ItemRecord describes one synchronized item of a collection as it exists on
// disk after the last committed update.
type ItemRecord struct {
	// ItemID is the stable remote identifier, unique within a collection.
	// It is the reconciliation key between local state and remote listings.
	ItemID string `json:"item_id"`

	// DisplayTitle is the human-readable title at the time the item was added.
	DisplayTitle string `json:"display_title"`

	// LocalFilename is the on-disk artifact name, including the ordering prefix.
	LocalFilename string `json:"local_filename"`

	// Format is the requested output format (file extension without dot).
	Format string `json:"format"`
}

// CollectionState is the persisted record of one synchronized directory.
// An item's position is its index in Items: 0-based, contiguous, unique.
type CollectionState struct {
	CollectionID string       `json:"collection_id"`
	Title        string       `json:"title"`
	Items        []ItemRecord `json:"items"`

	// ExcludedItemIDs lists remote items that failed retrieval permanently
	// (unavailable, age-restricted). They are skipped on later updates for as
	// long as they remain in the remote listing.
	ExcludedItemIDs []string `json:"excluded_item_ids,omitempty"`
}

// NewCollectionState creates an empty state for a collection.
func NewCollectionState(collectionID, title string) *CollectionState {
	return &CollectionState{
		CollectionID: collectionID,
		Title:        title,
		Items:        make([]ItemRecord, 0),
	}
}

// FindItem returns the record with the given item ID and its position.
func (cs *CollectionState) FindItem(itemID string) (ItemRecord, int, bool) {
	for i, item := range cs.Items {
		if item.ItemID == itemID {
			return item, i, true
		}
	}
	return ItemRecord{}, -1, false
}

// Clone returns a deep copy of the state.
func (cs *CollectionState) Clone() *CollectionState {
	items := make([]ItemRecord, len(cs.Items))
	copy(items, cs.Items)
	excluded := make([]string, len(cs.ExcludedItemIDs))
	copy(excluded, cs.ExcludedItemIDs)
	return &CollectionState{
		CollectionID:    cs.CollectionID,
		Title:           cs.Title,
		Items:           items,
		ExcludedItemIDs: excluded,
	}
}
