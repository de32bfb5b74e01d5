package ordering

import "testing"

func TestWidth(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, 1},
		{1, 1},
		{9, 1},
		{10, 2},
		{99, 2},
		{100, 3},
		{1000, 4},
	}

	for _, test := range tests {
		if got := Width(test.n); got != test.expected {
			t.Errorf("Width(%d) = %d, expected %d", test.n, got, test.expected)
		}
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		position int
		width    int
		expected string
	}{
		{0, 1, "1"},
		{8, 1, "9"},
		{0, 2, "01"},
		{9, 2, "10"},
		{99, 3, "100"},
	}

	for _, test := range tests {
		if got := Token(test.position, test.width); got != test.expected {
			t.Errorf("Token(%d, %d) = %q, expected %q", test.position, test.width, got, test.expected)
		}
	}
}

func TestFilename(t *testing.T) {
	got := Filename(2, 2, "Song: Remix", "mp3")
	expected := "03 - Song_ Remix.mp3"
	if got != expected {
		t.Errorf("Filename = %q, expected %q", got, expected)
	}
}

func TestFilename_LexicographicOrderMatchesPositions(t *testing.T) {
	// With a fixed width, names at consecutive positions must sort in
	// position order.
	width := Width(12)
	prev := ""
	for pos := 0; pos < 12; pos++ {
		name := Filename(pos, width, "Same Title", "mp3")
		if prev != "" && name <= prev {
			t.Fatalf("Filename at position %d (%q) does not sort after %q", pos, name, prev)
		}
		prev = name
	}
}
