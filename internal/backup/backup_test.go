package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func readDirNames(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir %s: %v", dir, err)
	}
	out := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			out[entry.Name()] = "<dir>"
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", entry.Name(), err)
		}
		out[entry.Name()] = string(data)
	}
	return out
}

func TestSnapshotCommit_RemovesBackup(t *testing.T) {
	parent := t.TempDir()
	workDir := filepath.Join(parent, "Mix")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("Failed to create work dir: %v", err)
	}
	writeFile(t, workDir, "1 - A.mp3", "aaa")

	h, err := Snapshot(workDir)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := os.Stat(h.Dir()); err != nil {
		t.Fatalf("Backup dir missing after snapshot: %v", err)
	}

	if err := h.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := os.Stat(h.Dir()); !os.IsNotExist(err) {
		t.Error("Backup dir should be gone after commit")
	}

	stale, err := FindStale(workDir)
	if err != nil {
		t.Fatalf("FindStale failed: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("Expected no stale backups, got %v", stale)
	}
}

func TestRestore_ReproducesSnapshotContents(t *testing.T) {
	parent := t.TempDir()
	workDir := filepath.Join(parent, "Mix")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("Failed to create work dir: %v", err)
	}
	writeFile(t, workDir, "1 - A.mp3", "aaa")
	writeFile(t, workDir, "2 - B.mp3", "bbb")
	writeFile(t, workDir, ".playlist-sync.json", `{"collection_id":"PL1"}`)

	before := readDirNames(t, workDir)

	h, err := Snapshot(workDir)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// Mutate the directory the way a partial update would: delete one file,
	// rename another, add an extra.
	if err := os.Remove(filepath.Join(workDir, "1 - A.mp3")); err != nil {
		t.Fatalf("Failed to delete file: %v", err)
	}
	if err := os.Rename(filepath.Join(workDir, "2 - B.mp3"), filepath.Join(workDir, "1 - B.mp3")); err != nil {
		t.Fatalf("Failed to rename file: %v", err)
	}
	writeFile(t, workDir, "3 - C.mp3", "ccc")

	if err := h.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	after := readDirNames(t, workDir)
	if len(after) != len(before) {
		t.Fatalf("Restored dir has %d entries, expected %d: %v", len(after), len(before), after)
	}
	for name, content := range before {
		if after[name] != content {
			t.Errorf("Restored %s = %q, expected %q", name, after[name], content)
		}
	}

	if _, err := os.Stat(h.Dir()); !os.IsNotExist(err) {
		t.Error("Backup dir should be discarded after restore")
	}

	// Restore must be idempotent: a second call is a no-op.
	if err := h.Restore(); err != nil {
		t.Fatalf("Second Restore failed: %v", err)
	}
	again := readDirNames(t, workDir)
	for name, content := range before {
		if again[name] != content {
			t.Errorf("After second restore %s = %q, expected %q", name, again[name], content)
		}
	}
}

func TestFindStale_DetectsLeftoverBackup(t *testing.T) {
	parent := t.TempDir()
	workDir := filepath.Join(parent, "Mix")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("Failed to create work dir: %v", err)
	}
	writeFile(t, workDir, "1 - A.mp3", "aaa")

	h, err := Snapshot(workDir)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// Simulate a crash: the handle is lost, the backup dir remains.
	stale, err := FindStale(workDir)
	if err != nil {
		t.Fatalf("FindStale failed: %v", err)
	}
	if len(stale) != 1 || stale[0] != h.Dir() {
		t.Fatalf("FindStale = %v, expected [%s]", stale, h.Dir())
	}

	// A different sibling directory must not match.
	if err := os.MkdirAll(filepath.Join(parent, ".Other.backup-x"), 0755); err != nil {
		t.Fatalf("Failed to create decoy: %v", err)
	}
	stale, err = FindStale(workDir)
	if err != nil {
		t.Fatalf("FindStale failed: %v", err)
	}
	if len(stale) != 1 {
		t.Errorf("FindStale matched unrelated directories: %v", stale)
	}

	recovered := Open(workDir, stale[0])
	if err := recovered.Restore(); err != nil {
		t.Fatalf("Restore from stale backup failed: %v", err)
	}
}
