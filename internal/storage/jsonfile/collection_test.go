package jsonfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestEnsureIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")
	c := NewCollection[record](path)

	for i := 0; i < 3; i++ {
		if err := c.Ensure(); err != nil {
			t.Fatalf("ensure failed on pass %d: %v", i, err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("backing file missing: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected seeded empty array, got %q", raw)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := NewCollection[record](filepath.Join(t.TempDir(), "records.json"))

	want := []record{{ID: "1", Name: "first"}, {ID: "2", Name: "second"}}
	if err := c.Write(want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := c.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: want %v, got %v", want, got)
	}
}

func TestReadHealsCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	c := NewCollection[record](path)

	if err := os.WriteFile(path, []byte(`{"broken": tru`), 0o644); err != nil {
		t.Fatalf("failed to corrupt file: %v", err)
	}

	got, err := c.Read()
	if err != nil {
		t.Fatalf("read of corrupt file must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected default empty collection, got %v", got)
	}

	// The file itself must have been repaired to valid JSON.
	again, err := c.Read()
	if err != nil {
		t.Fatalf("re-read after heal failed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected empty collection after heal, got %v", again)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "[]" {
		t.Fatalf("backing file not repaired, contains %q", raw)
	}
}

func TestReadHealsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	c := NewCollection[record](path)

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("failed to truncate file: %v", err)
	}

	got, err := c.Read()
	if err != nil {
		t.Fatalf("read of empty file must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected default empty collection, got %v", got)
	}
}

func TestWritePrettyPrints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	c := NewCollection[record](path)

	if err := c.Write([]record{{ID: "1", Name: "x"}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, _ := os.ReadFile(c.Path())
	if string(raw) == `[{"id":"1","name":"x"}]` {
		t.Fatal("expected indented output, got compact JSON")
	}
}
