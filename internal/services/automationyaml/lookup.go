package automationyaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is the Home Assistant configuration directory inside the add-on.
const DefaultConfigDir = "/config"

const (
	// MatchID marks a lookup resolved by the automation id field.
	MatchID = "id"
	// MatchAliasSlug marks a lookup resolved by the slugified alias.
	MatchAliasSlug = "alias_slug"
)

// ErrNotFound is returned when no YAML automation matches the item id.
var ErrNotFound = errors.New("automation not found in YAML")

// Result locates one automation inside a YAML file.
type Result struct {
	File       string         `json:"file"`
	Index      int            `json:"index"`
	Match      string         `json:"match"`
	Automation map[string]any `json:"automation"`
}

// Files lists automations.yaml plus YAML files in packages/ and one
// directory below it. Missing paths are skipped.
func Files(configDir string) ([]string, error) {
	if strings.TrimSpace(configDir) == "" {
		configDir = DefaultConfigDir
	}
	var files []string
	automations := filepath.Join(configDir, "automations.yaml")
	if info, err := os.Stat(automations); err == nil && !info.IsDir() {
		files = append(files, automations)
	}

	packagesDir := filepath.Join(configDir, "packages")
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return files, nil
		}
		return nil, fmt.Errorf("read packages dir: %w", err)
	}
	for _, entry := range entries {
		path := filepath.Join(packagesDir, entry.Name())
		if !entry.IsDir() {
			if isYAML(entry.Name()) {
				files = append(files, path)
			}
			continue
		}
		nested, err := os.ReadDir(path)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(nested))
		for _, child := range nested {
			if !child.IsDir() && isYAML(child.Name()) {
				names = append(names, child.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			files = append(files, filepath.Join(path, name))
		}
	}
	return files, nil
}

// Lookup returns the first automation whose id equals itemID, or whose
// slugified alias does. Files are scanned in Files order and entries in
// document order.
func Lookup(configDir, itemID string) (Result, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return Result{}, fmt.Errorf("item id is required")
	}
	files, err := Files(configDir)
	if err != nil {
		return Result{}, err
	}
	for _, file := range files {
		automations, err := readAutomations(file)
		if err != nil {
			return Result{}, err
		}
		for i, automation := range automations {
			if id, ok := automation["id"].(string); ok && id == itemID {
				return Result{File: file, Index: i, Match: MatchID, Automation: automation}, nil
			}
			if alias, ok := automation["alias"].(string); ok && Slugify(alias) == itemID {
				return Result{File: file, Index: i, Match: MatchAliasSlug, Automation: automation}, nil
			}
		}
	}
	return Result{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
}

func readAutomations(file string) ([]map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return automationList(normalize(doc)), nil
}

// automationList accepts a top-level list or a package map with an
// automation list.
func automationList(doc any) []map[string]any {
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["automation"].([]any)
		if !ok {
			return nil
		}
		items = list
	default:
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			entry = map[string]any{}
		}
		out = append(out, entry)
	}
	return out
}

// normalize rewrites non-string map keys so documents encode as JSON.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalize(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	default:
		return value
	}
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
