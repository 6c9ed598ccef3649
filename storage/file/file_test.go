package file

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsNilNoError(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "missing.blob"))
	blob, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if blob != nil {
		t.Fatalf("expected nil blob for missing file, got %v", blob)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "history.blob"))
	want := []byte("opaque encrypted content")

	if err := b.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Load() = %q, want %q", got, want)
	}
}

func TestSaveIsFullRewrite(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "history.blob"))
	b.Save([]byte("first, a much longer blob than the second"))
	b.Save([]byte("second"))

	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Load() = %q, want %q (no trailing bytes from the first save)", got, "second")
	}
}
