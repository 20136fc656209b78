package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed library
var library embed.FS

// Default returns a registry holding the embedded library.
func Default() (*Registry, error) {
	r := NewRegistry()
	sub, err := fs.Sub(library, "library")
	if err != nil {
		return nil, err
	}
	if err := r.load(sub); err != nil {
		return nil, fmt.Errorf("PROMPT_LIBRARY_ERROR: %w", err)
	}
	return r, nil
}

// LoadDirectory registers every .json template under dir, replacing
// embedded templates with the same ID. Expected layout:
//
//	dir/
//	  extraction/
//	    financial_report.json
func (r *Registry) LoadDirectory(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("PROMPT_DIR_NOT_FOUND: %s: %w", dir, err)
	}
	return r.load(os.DirFS(dir))
}

func (r *Registry) load(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}
		if pt.ID == "" {
			pt.ID = idFromPath(p)
		}
		if pt.Category == "" {
			pt.Category = categoryFromPath(p)
		}
		return r.Register(&pt)
	})
}

// idFromPath maps "extraction/key_metrics.json" to "extraction.key_metrics".
func idFromPath(p string) string {
	return strings.ReplaceAll(strings.TrimSuffix(p, ".json"), "/", ".")
}

func categoryFromPath(p string) string {
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[:i]
	}
	return "default"
}
