package ordering

// Package ordering implements the renumbering policy: fixed-width positional
// prefixes derived from an item's position so that lexicographic filename
// order matches playlist order.

import (
	"fmt"

	"github.com/ytget/playlist-sync/internal/platform"
)

// Filename layout
const (
	TokenSeparator = " - "
)

// Width returns the token digit width for a collection of n items. A width
// change (e.g. crossing from 9 to 10 items) forces every surviving file to be
// renamed so lexicographic order stays consistent.
func Width(n int) int {
	if n < 10 {
		return 1
	}
	width := 1
	for n >= 10 {
		n /= 10
		width++
	}
	return width
}

// Token formats a 0-based position as a fixed-width, 1-based decimal prefix.
func Token(position, width int) string {
	return fmt.Sprintf("%0*d", width, position+1)
}

// Filename builds the on-disk name for an item: "NN - Title.ext". The title
// is sanitized for filesystem use.
func Filename(position, width int, title, format string) string {
	return Token(position, width) + TokenSeparator + platform.SanitizeFilename(title) + "." + format
}
