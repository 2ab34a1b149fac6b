package cas

import (
	"errors"
	"io/fs"
	"testing"
)

func TestPutGet_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	content := []byte(`{"name":"Node","brief_description":"Base class."}`)
	hash, err := s.Put(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash != Hash(content) {
		t.Errorf("hash = %s, want %s", hash, Hash(content))
	}
	if !s.Has(hash) {
		t.Error("Has returned false after Put")
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestPut_Dedup(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	hash1, err := s.Put([]byte("duplicate content"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Put([]byte("duplicate content"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
}

func TestPut_DifferentContent(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	hash1, err := s.Put([]byte("content A"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Put([]byte("content B"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hashes")
	}
}

func TestGet_MissingHash(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	_, err := s.Get("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected error for missing hash")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := s.Get("ab"); err == nil {
		t.Error("expected error for short hash")
	}
}
