package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	cat, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := cat.Render("banter.not_your", map[string]string{"Nickname": "Buddy", "Comeback": "Pal"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "I'm not your Buddy, Pal." {
		t.Fatalf("unexpected render: %q", got)
	}
	if _, err := cat.Render("banter.missing_key", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := []byte("banter:\n  ok: \"Fine.\"\n")
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), override, 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	cat, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := cat.Render("banter.ok", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Fine." {
		t.Fatalf("override not applied: %q", got)
	}
	// untouched keys keep their defaults
	if got, _ := cat.Render("banter.hi", nil); got != "Hi" {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestDuplicateOverrideKeyRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("banter:\n  ok: \"X.\"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
