// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the embedded locale files against the source code. It
// scans the Go sources for i18n.T() calls and reports keys that are missing
// from a locale (failure) or present in the primary locale but never used
// (warning).
//
// Usage:
//
//	go run ./tools/i18n-linter [project-root]
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var usedKeyRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// report is the outcome of one lint run.
type report struct {
	Used     int
	Primary  int
	Missing  map[string][]string // locale file -> keys used in code but absent
	Orphaned []string            // keys in the primary locale that nothing uses
}

func (r report) failed() bool {
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	r, err := lint(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	printReport(os.Stdout, r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root string) (report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return report{}, fmt.Errorf("scan sources: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(root, localesDir, "*.yaml"))
	if err != nil {
		return report{}, err
	}
	if len(files) == 0 {
		return report{}, fmt.Errorf("no locale files below %s", filepath.Join(root, localesDir))
	}

	r := report{Used: len(used), Missing: map[string][]string{}}
	for _, file := range files {
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return report{}, fmt.Errorf("load %s: %w", file, err)
		}
		name := filepath.Base(file)
		r.Missing[name] = difference(used, keys)
		if name == primaryLocale {
			r.Primary = len(keys)
			r.Orphaned = difference(keys, used)
		}
	}
	return r, nil
}

// difference returns the sorted keys of a that are not in b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func printReport(w io.Writer, r report) {
	_, _ = fmt.Fprintf(w, "%d keys used in code, %d keys in %s\n", r.Used, r.Primary, primaryLocale)

	locales := make([]string, 0, len(r.Missing))
	for name := range r.Missing {
		locales = append(locales, name)
	}
	sort.Strings(locales)
	for _, name := range locales {
		keys := r.Missing[name]
		if len(keys) == 0 {
			_, _ = fmt.Fprintf(w, "%s: all keys present\n", name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s: %d missing\n", name, len(keys))
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  - %s\n", k)
		}
	}
	for _, k := range r.Orphaned {
		_, _ = fmt.Fprintf(w, "orphaned: %s\n", k)
	}
}

// findUsedKeys scans non-test .go files for i18n.T("key") calls. Directories
// starting with "_" or "." and the tools directory are skipped.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns a flat set of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into dot-separated keys. Flat files with
// dotted keys pass through unchanged.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			newPrefix := k
			if prefix != "" {
				newPrefix = prefix + "." + k
			}
			flattenYAML(newPrefix, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
