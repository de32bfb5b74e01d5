package remote

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildArgs_AudioFormat(t *testing.T) {
	r := NewExecRetriever("", nil)
	args := r.BuildArgs(Request{
		ItemID:       "abc123",
		TargetFormat: "mp3",
		StagingDir:   "/tmp/stage",
	})

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--no-playlist",
		"-x",
		"--audio-format mp3",
		"--embed-thumbnail",
		"--add-metadata",
		"https://www.youtube.com/watch?v=abc123",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Audio args missing %q: %s", want, joined)
		}
	}
	if strings.Contains(joined, "--merge-output-format") {
		t.Errorf("Audio args should not contain merge flag: %s", joined)
	}
}

func TestBuildArgs_VideoFormatWithQualityCeiling(t *testing.T) {
	r := NewExecRetriever("", nil)
	args := r.BuildArgs(Request{
		ItemID:         "abc123",
		TargetFormat:   "mp4",
		QualityCeiling: 1080,
		StagingDir:     "/tmp/stage",
	})

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"bestvideo[height<=1080]+bestaudio/best[height<=1080]",
		"--merge-output-format mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Video args missing %q: %s", want, joined)
		}
	}
	if strings.Contains(joined, "-x") {
		t.Errorf("Video args should not extract audio: %s", joined)
	}
}

func TestBuildArgs_VideoFormatWithoutCeiling(t *testing.T) {
	r := NewExecRetriever("", nil)
	args := r.BuildArgs(Request{
		ItemID:       "abc123",
		TargetFormat: "mkv",
		StagingDir:   "/tmp/stage",
	})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "bestvideo+bestaudio/best") {
		t.Errorf("Expected unbounded selector, got: %s", joined)
	}
}

func TestFindArtifact(t *testing.T) {
	r := NewExecRetriever("", nil)
	staging := t.TempDir()

	req := Request{ItemID: "abc123", TargetFormat: "mp3", StagingDir: staging}

	// No artifact yet.
	if _, err := r.findArtifact(req); err == nil {
		t.Error("Expected error when no artifact exists")
	}

	// Partial downloads must be ignored.
	if err := os.WriteFile(filepath.Join(staging, "abc123.mp3.part"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := r.findArtifact(req); err == nil {
		t.Error("Expected partial download to be ignored")
	}

	// A different container than requested is still accepted.
	if err := os.WriteFile(filepath.Join(staging, "abc123.m4a"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	got, err := r.findArtifact(req)
	if err != nil {
		t.Fatalf("findArtifact failed: %v", err)
	}
	if filepath.Base(got) != "abc123.m4a" {
		t.Errorf("findArtifact = %q, expected abc123.m4a", got)
	}

	// The exact requested name wins when present.
	if err := os.WriteFile(filepath.Join(staging, "abc123.mp3"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	got, err = r.findArtifact(req)
	if err != nil {
		t.Fatalf("findArtifact failed: %v", err)
	}
	if filepath.Base(got) != "abc123.mp3" {
		t.Errorf("findArtifact = %q, expected abc123.mp3", got)
	}
}

func TestIsPermanentFailure(t *testing.T) {
	tests := []struct {
		output   string
		expected bool
	}{
		{"ERROR: [youtube] abc: Video unavailable", true},
		{"ERROR: [youtube] abc: Private video. Sign in if you've been granted access", true},
		{"ERROR: Sign in to confirm your age", true},
		{"ERROR: unable to download video data: HTTP Error 503", false},
		{"", false},
	}

	for _, test := range tests {
		if got := isPermanentFailure(test.output); got != test.expected {
			t.Errorf("isPermanentFailure(%q) = %v, expected %v", test.output, got, test.expected)
		}
	}
}

func TestMaterialize_RejectsUnsupportedFormat(t *testing.T) {
	r := NewExecRetriever("", nil)
	_, err := r.Materialize(t.Context(), Request{
		ItemID:       "abc123",
		TargetFormat: "ogg",
		StagingDir:   t.TempDir(),
	})
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
}
