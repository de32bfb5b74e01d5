package remote

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable marks a listing failure: the collection could not be
// reached at all. An update aborts with no local mutation.
var ErrRemoteUnavailable = errors.New("remote collection unavailable")

// ErrRetrievalFailed marks a failed retrieval of a single item. It is
// non-fatal to the overall update: the item is skipped and reported.
var ErrRetrievalFailed = errors.New("retrieval failed")

// RemoteError wraps a listing failure for one collection.
type RemoteError struct {
	CollectionID string
	Err          error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to list collection %s: %v", e.CollectionID, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteUnavailable }

// RetrievalError wraps a failed retrieval of one item. Permanent failures
// (age-restricted or unavailable items) should be treated as permanently
// excluded rather than retried on later runs.
type RetrievalError struct {
	ItemID    string
	Permanent bool
	Err       error
}

func (e *RetrievalError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("item %s permanently unavailable: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("failed to retrieve item %s: %v", e.ItemID, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrievalFailed }
