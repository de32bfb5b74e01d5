package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	if err := CreateDirectoryIfNotExists(testDir); err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "state.json", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("File content = %q, expected %q", data, `{"v":1}`)
	}

	// Replacing an existing file must succeed and leave no temp files behind
	if err := WriteFileAtomic(dir, "state.json", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("WriteFileAtomic replace failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file after replace, got %d", len(entries))
	}

	data, _ = os.ReadFile(filepath.Join(dir, "state.json"))
	if string(data) != `{"v":2}` {
		t.Errorf("File content after replace = %q, expected %q", data, `{"v":2}`)
	}
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	if err := os.WriteFile(filepath.Join(src, "a.mp3"), []byte("audio-a"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.mp3"), []byte("audio-b"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "a.mp3"))
	if err != nil || string(data) != "audio-a" {
		t.Errorf("Copied a.mp3 = %q, err = %v, expected %q", data, err, "audio-a")
	}
	data, err = os.ReadFile(filepath.Join(dst, "sub", "b.mp3"))
	if err != nil || string(data) != "audio-b" {
		t.Errorf("Copied sub/b.mp3 = %q, err = %v, expected %q", data, err, "audio-b")
	}
}

func TestRemoveDirContents(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	if err := RemoveDirContents(dir); err != nil {
		t.Fatalf("RemoveDirContents failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Directory itself should survive: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory, got %d entries", len(entries))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Plain Title", "Plain Title"},
		{"a/b\\c:d*e?f\"g<h>i|j", "a_b_c_d_e_f_g_h_i_j"},
		{"  trimmed  ", "trimmed"},
		{"dots...", "dots"},
		{"", "untitled"},
		{"///", "untitled"},
	}

	for _, test := range tests {
		if got := SanitizeFilename(test.input); got != test.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	if got := DetectFormat(dir); got != "" {
		t.Errorf("DetectFormat on empty dir = %q, expected empty", got)
	}

	for _, name := range []string{"1 - a.mp3", "2 - b.mp3", "3 - c.mp4", ".playlist-sync.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	if got := DetectFormat(dir); got != "mp3" {
		t.Errorf("DetectFormat = %q, expected %q", got, "mp3")
	}
}
