package remote

import (
	"context"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
	"go.uber.org/zap"

	"github.com/ytget/playlist-sync/internal/model"
)

// Timeout constants
const (
	DefaultListTimeout = 60 * time.Second
)

// Playlist title constants
const (
	MinPrefixLength     = 10
	PlaylistSuffix      = " Playlist"
	DefaultPlaylistName = "Unknown Playlist"
)

// Listing is the validated result of enumerating a remote collection.
// Items follow remote order; unavailable and malformed entries are excluded.
type Listing struct {
	Title string
	Items []model.RemoteItem
}

// Enumerator lists the current contents of a remote collection.
type Enumerator interface {
	ListItems(ctx context.Context, collectionID string) (Listing, error)
}

// YTDLPEnumerator enumerates YouTube playlists using the ytdlp library.
type YTDLPEnumerator struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewYTDLPEnumerator creates a new playlist enumerator.
func NewYTDLPEnumerator(logger *zap.Logger) *YTDLPEnumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPEnumerator{
		timeout: DefaultListTimeout,
		logger:  logger,
	}
}

// SetTimeout sets the timeout for listing operations.
func (e *YTDLPEnumerator) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// ListItems fetches the flat playlist listing and validates every entry.
// Entries without a stable ID or a title are rejected at this boundary, and a
// duplicate ID keeps only its first occurrence, so the diff engine always
// sees unique, well-formed items.
func (e *YTDLPEnumerator) ListItems(ctx context.Context, collectionID string) (Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, collectionID, 0)
	if err != nil {
		return Listing{}, &RemoteError{CollectionID: collectionID, Err: err}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]model.RemoteItem, 0, len(items))
	skipped := 0
	for _, it := range items {
		if it.VideoID == "" || it.Title == "" {
			skipped++
			continue
		}
		if _, dup := seen[it.VideoID]; dup {
			skipped++
			continue
		}
		seen[it.VideoID] = struct{}{}
		out = append(out, model.RemoteItem{ItemID: it.VideoID, Title: it.Title})
	}

	if skipped > 0 {
		e.logger.Warn("Skipped malformed playlist entries",
			zap.String("collection_id", collectionID),
			zap.Int("skipped", skipped))
	}

	return Listing{Title: DeriveTitle(out), Items: out}, nil
}

// DeriveTitle generates a display title for the collection based on its
// items: the common prefix of the first two titles when it is long enough,
// otherwise the first title.
func DeriveTitle(items []model.RemoteItem) string {
	if len(items) == 0 {
		return DefaultPlaylistName
	}
	if len(items) > 1 {
		commonPrefix := findCommonPrefix(items[0].Title, items[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return items[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings.
func findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}
