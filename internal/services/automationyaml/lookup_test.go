package automationyaml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "automations.yaml"), `
- id: "1700000000000"
  alias: Porch lights on
  trigger:
    - platform: sun
      event: sunset
  action:
    - service: light.turn_on
      target:
        entity_id: light.porch
- alias: Café Morning
  trigger: []
`)
	writeFile(t, filepath.Join(dir, "packages", "garage.yaml"), `
automation:
  - id: garage_close
    alias: Close garage at night
    action: []
sensor: []
`)
	writeFile(t, filepath.Join(dir, "packages", "climate", "heating.yml"), `
automation:
  - alias: Heating (boost)
    action: []
`)
	writeFile(t, filepath.Join(dir, "packages", "notes.txt"), "not yaml")
	return dir
}

func TestFiles(t *testing.T) {
	dir := newConfigDir(t)

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	want := []string{
		filepath.Join(dir, "automations.yaml"),
		filepath.Join(dir, "packages", "climate", "heating.yml"),
		filepath.Join(dir, "packages", "garage.yaml"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesMissingDir(t *testing.T) {
	files, err := Files(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}

func TestLookup(t *testing.T) {
	dir := newConfigDir(t)

	tests := []struct {
		name   string
		itemID string
		file   string
		index  int
		match  string
	}{
		{name: "id", itemID: "1700000000000", file: "automations.yaml", index: 0, match: MatchID},
		{name: "alias slug", itemID: "porch_lights_on", file: "automations.yaml", index: 0, match: MatchAliasSlug},
		{name: "accented alias", itemID: "cafe_morning", file: "automations.yaml", index: 1, match: MatchAliasSlug},
		{name: "package id", itemID: "garage_close", file: filepath.Join("packages", "garage.yaml"), index: 0, match: MatchID},
		{name: "nested package", itemID: "heating_boost", file: filepath.Join("packages", "climate", "heating.yml"), index: 0, match: MatchAliasSlug},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Lookup(dir, tc.itemID)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if got.File != filepath.Join(dir, tc.file) || got.Index != tc.index || got.Match != tc.match {
				t.Fatalf("unexpected result file=%s index=%d match=%s", got.File, got.Index, got.Match)
			}
			if got.Automation == nil {
				t.Fatal("expected automation body")
			}
		})
	}
}

func TestLookupReturnsAutomationBody(t *testing.T) {
	got, err := Lookup(newConfigDir(t), "1700000000000")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	actions, ok := got.Automation["action"].([]any)
	if !ok || len(actions) != 1 {
		t.Fatalf("unexpected actions %v", got.Automation["action"])
	}
	target := actions[0].(map[string]any)["target"].(map[string]any)
	if target["entity_id"] != "light.porch" {
		t.Fatalf("unexpected target %v", target)
	}
}

func TestLookupNotFound(t *testing.T) {
	_, err := Lookup(newConfigDir(t), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupRequiresItemID(t *testing.T) {
	if _, err := Lookup(t.TempDir(), " "); err == nil {
		t.Fatal("expected error for empty item id")
	}
}

func TestLookupInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "automations.yaml"), "- id: [unclosed\n")

	if _, err := Lookup(dir, "x"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNormalizeNonStringKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "automations.yaml"), `
- id: numeric
  variables:
    1: one
`)
	got, err := Lookup(dir, "numeric")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	vars, ok := got.Automation["variables"].(map[string]any)
	if !ok || vars["1"] != "one" {
		t.Fatalf("unexpected variables %#v", got.Automation["variables"])
	}
}
