package automationyaml

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Porch lights on":     "porch_lights_on",
		"  Heating (boost)  ": "heating_boost",
		"Café Morning":        "cafe_morning",
		"Door -  open":        "door_-_open",
		"multi\t\nspace":      "multi_space",
		"already_slug__twice": "already_slug_twice",
		"Wake up! 07:00":      "wake_up_0700",
		"Ünïcödé ålïås":       "unicode_alias",
		"trailing symbol (":   "trailing_symbol_",
	}
	for input, want := range tests {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugifyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		alias := rapid.String().Draw(t, "alias")
		slug := Slugify(alias)

		if strings.Contains(slug, "__") {
			t.Fatalf("slug %q has repeated underscores", slug)
		}
		for _, r := range slug {
			if !isWord(r) && r != '-' {
				t.Fatalf("slug %q has disallowed rune %q", slug, r)
			}
			if 'A' <= r && r <= 'Z' {
				t.Fatalf("slug %q is not lowercase", slug)
			}
		}
		if again := Slugify(slug); again != slug {
			t.Fatalf("slugify not idempotent: %q -> %q", slug, again)
		}
	})
}
