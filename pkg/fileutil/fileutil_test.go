package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveExactMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kick.wav")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != path {
		t.Errorf("Resolve = %q, want %q", got, path)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	actual := filepath.Join(dir, "Snare.WAV")
	if err := os.WriteFile(actual, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(filepath.Join(dir, "snare.wav"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != actual {
		t.Errorf("Resolve = %q, want %q", got, actual)
	}
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := Resolve(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("Resolve should fail for a missing file")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	actual := filepath.Join(dir, "Loop.OGG")
	if err := os.WriteFile(actual, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(filepath.Join(dir, "loop.ogg"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("ReadFile = %q, want %q", data, "payload")
	}
}
