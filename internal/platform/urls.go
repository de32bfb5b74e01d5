package platform

import (
	"fmt"
	"strings"
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	VideoParam     = "watch?v="
	ParamSeparator = "&"
)

// URL templates
const (
	PlaylistURLTemplate = "https://www.youtube.com/playlist?list=%s"
	VideoURLTemplate    = "https://www.youtube.com/watch?v=%s"
	ShortVideoURLPrefix = "https://youtu.be/"
)

// ExtractPlaylistID extracts the playlist ID from any URL carrying a list=
// parameter. Returns "" when no ID is present.
func ExtractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.Split(url, PlaylistParam)
	if len(parts) < 2 {
		return ""
	}
	id := parts[1]
	if strings.Contains(id, ParamSeparator) {
		id = strings.Split(id, ParamSeparator)[0]
	}
	return id
}

// CanonicalPlaylistURL rebuilds the canonical playlist URL for an input that
// may be any of the many YouTube playlist URL shapes.
func CanonicalPlaylistURL(url string) (string, error) {
	id := ExtractPlaylistID(strings.TrimSpace(url))
	if id == "" {
		return "", fmt.Errorf("not a playlist URL: %s", url)
	}
	return fmt.Sprintf(PlaylistURLTemplate, id), nil
}

// ExtractVideoID extracts the video ID from standard watch?v= links and
// youtu.be short links. Returns "" when no ID is present.
func ExtractVideoID(url string) string {
	url = strings.TrimSpace(url)

	if strings.HasPrefix(url, ShortVideoURLPrefix) {
		id := strings.TrimPrefix(url, ShortVideoURLPrefix)
		if i := strings.IndexAny(id, "?&"); i >= 0 {
			id = id[:i]
		}
		return id
	}

	if strings.Contains(url, VideoParam) {
		parts := strings.Split(url, VideoParam)
		id := parts[len(parts)-1]
		if strings.Contains(id, ParamSeparator) {
			id = strings.Split(id, ParamSeparator)[0]
		}
		return id
	}

	return ""
}

// CanonicalVideoURL rebuilds the canonical watch URL for standard watch?v=
// links and youtu.be short links.
func CanonicalVideoURL(url string) (string, error) {
	id := ExtractVideoID(url)
	if id == "" {
		return "", fmt.Errorf("not a video URL: %s", url)
	}
	return fmt.Sprintf(VideoURLTemplate, id), nil
}
