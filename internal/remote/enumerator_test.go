package remote

import (
	"errors"
	"testing"

	"github.com/ytget/playlist-sync/internal/model"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.RemoteItem
		expected string
	}{
		{
			name:     "empty listing",
			items:    nil,
			expected: DefaultPlaylistName,
		},
		{
			name: "long common prefix",
			items: []model.RemoteItem{
				{ItemID: "a", Title: "Rammstein Live - Du Hast"},
				{ItemID: "b", Title: "Rammstein Live - Sonne"},
			},
			expected: "Rammstein Live - Playlist",
		},
		{
			name: "no useful prefix",
			items: []model.RemoteItem{
				{ItemID: "a", Title: "First Song"},
				{ItemID: "b", Title: "Another One"},
			},
			expected: "First Song Playlist",
		},
		{
			name: "single item",
			items: []model.RemoteItem{
				{ItemID: "a", Title: "Only Track"},
			},
			expected: "Only Track Playlist",
		},
	}

	for _, test := range tests {
		if got := DeriveTitle(test.items); got != test.expected {
			t.Errorf("%s: DeriveTitle = %q, expected %q", test.name, got, test.expected)
		}
	}
}

func TestRemoteError_IsRemoteUnavailable(t *testing.T) {
	err := error(&RemoteError{CollectionID: "PL1", Err: errors.New("dns failure")})

	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Error("RemoteError should match ErrRemoteUnavailable")
	}

	var re *RemoteError
	if !errors.As(err, &re) || re.CollectionID != "PL1" {
		t.Errorf("Expected RemoteError with collection PL1, got %v", err)
	}
}

func TestRetrievalError_Classification(t *testing.T) {
	transient := error(&RetrievalError{ItemID: "x", Err: errors.New("http 503")})
	permanent := error(&RetrievalError{ItemID: "y", Permanent: true, Err: errors.New("video unavailable")})

	if !errors.Is(transient, ErrRetrievalFailed) || !errors.Is(permanent, ErrRetrievalFailed) {
		t.Error("Both retrieval errors should match ErrRetrievalFailed")
	}

	var re *RetrievalError
	if !errors.As(permanent, &re) || !re.Permanent {
		t.Error("Expected permanent retrieval error to carry the Permanent flag")
	}
}
