// Package catalog discovers model specs from a models directory and merges
// them with explicit config entries.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// Scan walks dir for *.gguf files and builds specs from filenames. The
// spec name is the filename without its extension; discovered models get
// the text type, since gguf files carry language models.
func Scan(dir string) ([]types.ModelSpec, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var specs []types.ModelSpec
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		specs = append(specs, types.ModelSpec{
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Type: types.TypeText,
			Path: filepath.Join(abs, name),
		})
	}
	return specs, nil
}

// Merge overlays explicit specs onto discovered ones; an explicit entry
// with the same name wins. The result is sorted by name.
func Merge(discovered, explicit []types.ModelSpec) []types.ModelSpec {
	byName := make(map[string]types.ModelSpec, len(discovered)+len(explicit))
	for _, s := range discovered {
		byName[s.Name] = s
	}
	for _, s := range explicit {
		byName[s.Name] = s
	}
	out := make([]types.ModelSpec, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
