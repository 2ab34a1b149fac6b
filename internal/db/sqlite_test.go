package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcdickinson/docview/internal/cas"
	"github.com/jcdickinson/docview/internal/docs"
)

func testDB(t *testing.T) (*DB, *cas.Store) {
	t.Helper()
	dir := t.TempDir()
	blobs := cas.New(filepath.Join(dir, "cas"))
	db, err := New(filepath.Join(dir, "test.db"), blobs)
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, blobs
}

func raw(name, body string) docs.RawClass {
	return docs.RawClass{Name: name, Data: []byte(body)}
}

var bundle = []docs.RawClass{
	raw("Node", `{"name": "Node", "brief_description": "Base class."}`),
	raw("Sprite", `{"name": "Sprite", "inherits": "Node", "methods": [{"name": "draw", "return_type": "void"}]}`),
	raw("#2", `{"inherits": "Node"}`),
}

func TestImport(t *testing.T) {
	t.Parallel()
	db, _ := testDB(t)
	ctx := context.Background()

	var ticks int
	res, err := db.Import(ctx, "/docs", "4.3", bundle, func() { ticks++ })
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 || len(res.Failures) != 1 || res.Failures[0].Name != "#2" {
		t.Errorf("result = %+v", res)
	}
	if ticks != 3 {
		t.Errorf("progress called %d times, want 3", ticks)
	}

	classes, err := db.ListClasses()
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) != 2 || classes[1].Name != "Sprite" || classes[1].Parent != "Node" {
		t.Errorf("classes = %+v", classes)
	}

	o, err := db.GetOrigin("/docs")
	if err != nil || o == nil {
		t.Fatalf("GetOrigin = %v, %v", o, err)
	}
	if o.Version != "4.3" || o.ImportedAt == nil {
		t.Errorf("origin = %+v", o)
	}
}

func TestImport_ReplacesOrigin(t *testing.T) {
	t.Parallel()
	db, _ := testDB(t)
	ctx := context.Background()

	if _, err := db.Import(ctx, "/docs", "1", bundle[:2], nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Import(ctx, "/docs", "2", bundle[:1], nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.CountClasses(); n != 1 {
		t.Errorf("CountClasses() = %d after re-import, want 1", n)
	}
	origins, _ := db.ListOrigins()
	if len(origins) != 1 || origins[0].Version != "2" {
		t.Errorf("origins = %+v", origins)
	}
}

func TestLoadClasses(t *testing.T) {
	t.Parallel()
	db, _ := testDB(t)
	ctx := context.Background()

	if _, _, err := db.LoadClasses(ctx); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("empty catalog error = %v", err)
	}
	if _, err := db.Import(ctx, "/docs", "", bundle, nil); err != nil {
		t.Fatal(err)
	}

	records, failures, err := db.LoadClasses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v", failures)
	}
	if len(records) != 2 || records[0].Name != "Node" || records[1].Name != "Sprite" {
		t.Fatalf("records = %+v", records)
	}
	if len(records[1].Members) != 1 || records[1].Members[0].Name != "draw" {
		t.Errorf("Sprite members = %+v", records[1].Members)
	}
}

func TestLoadClasses_MissingBlob(t *testing.T) {
	t.Parallel()
	db, blobs := testDB(t)
	ctx := context.Background()
	if _, err := db.Import(ctx, "/docs", "", bundle[:2], nil); err != nil {
		t.Fatal(err)
	}
	classes, _ := db.ListClasses()
	var spriteHash string
	for _, c := range classes {
		if c.Name == "Sprite" {
			spriteHash = c.ContentHash
		}
	}
	path := filepath.Join(blobs.Dir(), spriteHash[:2], spriteHash[2:]+".json.zst")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	records, failures, err := db.LoadClasses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || len(failures) != 1 || failures[0].Name != "Sprite" {
		t.Errorf("records = %d, failures = %v", len(records), failures)
	}
}

func TestRemoveOrigin(t *testing.T) {
	t.Parallel()
	db, _ := testDB(t)
	ctx := context.Background()
	db.Import(ctx, "/a", "", bundle[:1], nil)
	db.Import(ctx, "/b", "", bundle[1:2], nil)

	ok, err := db.RemoveOrigin("/a")
	if err != nil || !ok {
		t.Fatalf("RemoveOrigin = %v, %v", ok, err)
	}
	classes, _ := db.ListClasses()
	if len(classes) != 1 || classes[0].Name != "Sprite" {
		t.Errorf("classes after remove = %+v", classes)
	}
	if ok, _ := db.RemoveOrigin("/a"); ok {
		t.Error("second remove should report nothing removed")
	}
}

func TestImport_IdenticalContentSharesBlob(t *testing.T) {
	t.Parallel()
	db, _ := testDB(t)
	ctx := context.Background()
	db.Import(ctx, "/a", "", []docs.RawClass{raw("Node", `{"name":"Node"}`)}, nil)
	db.Import(ctx, "/b", "", []docs.RawClass{raw("Node", "{\n  \"name\": \"Node\"\n}")}, nil)

	classes, _ := db.ListClasses()
	if len(classes) != 2 || classes[0].ContentHash != classes[1].ContentHash {
		t.Errorf("classes = %+v", classes)
	}
}
