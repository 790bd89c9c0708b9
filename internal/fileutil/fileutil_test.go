package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clip_01.wav")
	payload := []byte("RIFF....WAVE")

	if err := WriteFileAtomic(path, payload, 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: got %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip_01.wav")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new contents"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "new contents" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestSizeExceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip_01.wav")
	if SizeExceeds(path, 0) {
		t.Fatal("missing file should not pass the floor")
	}
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !SizeExceeds(path, 99) {
		t.Fatal("file above the floor should pass")
	}
	if SizeExceeds(path, 100) {
		t.Fatal("file exactly at the floor must not pass")
	}
	if SizeExceeds(path, 101) {
		t.Fatal("undersized file should not pass the floor")
	}
	if SizeExceeds(dir, 0) {
		t.Fatal("directories should never pass the floor")
	}
}
