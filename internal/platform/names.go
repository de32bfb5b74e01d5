package platform

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Supported output formats, matching what the retrieval backend can produce.
var (
	AudioFormats = []string{"mp3", "m4a", "flac", "opus", "wav"}
	VideoFormats = []string{"mp4", "mkv", "webm"}
)

// Filename sanitization limits
const (
	MaxFilenameLength = 180
	FallbackFilename  = "untitled"
)

// IsSupportedFormat reports whether format is a known output format.
func IsSupportedFormat(format string) bool {
	return IsAudioFormat(format) || IsVideoFormat(format)
}

// IsAudioFormat reports whether format is an audio-only output format.
func IsAudioFormat(format string) bool {
	for _, f := range AudioFormats {
		if f == format {
			return true
		}
	}
	return false
}

// IsVideoFormat reports whether format is a video output format.
func IsVideoFormat(format string) bool {
	for _, f := range VideoFormats {
		if f == format {
			return true
		}
	}
	return false
}

// SanitizeFilename makes a title safe to use as a file name on the common
// platforms: path separators, reserved punctuation and control characters are
// replaced with underscores, surrounding whitespace and dots are trimmed, and
// the result is capped at MaxFilenameLength runes.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Trim(b.String(), " .")
	if cleaned == "" {
		return FallbackFilename
	}

	runes := []rune(cleaned)
	if len(runes) > MaxFilenameLength {
		cleaned = strings.Trim(string(runes[:MaxFilenameLength]), " .")
		if cleaned == "" {
			return FallbackFilename
		}
	}
	return cleaned
}

// DetectFormat infers the media format of a directory from the extensions of
// the files already present, preferring the most common one. Hidden files and
// unknown extensions are ignored. Returns "" when nothing can be inferred.
func DetectFormat(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	counts := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		ext = strings.ToLower(ext)
		if IsSupportedFormat(ext) {
			counts[ext]++
		}
	}

	if len(counts) == 0 {
		return ""
	}

	formats := make([]string, 0, len(counts))
	for f := range counts {
		formats = append(formats, f)
	}
	// Stable tie-break so repeated calls agree.
	sort.Slice(formats, func(i, j int) bool {
		if counts[formats[i]] != counts[formats[j]] {
			return counts[formats[i]] > counts[formats[j]]
		}
		return formats[i] < formats[j]
	})
	return formats[0]
}
