package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mifi/commonify/pkg/errors"
)

// conditions are the export conditions tried, in order, when picking the
// CommonJS entry point out of an "exports" map.
var conditions = []string{"require", "node", "default", "import"}

// EntryPoint returns the file the converted package should expose as "main".
// It follows "exports" (a string, a subpath map keyed by ".", or a condition
// map, possibly nested) and falls back to "main".
func (m *Manifest) EntryPoint() (string, error) {
	if len(m.Exports) > 0 {
		var exports any
		if err := json.Unmarshal(m.Exports, &exports); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s: parse exports", m.Name)
		}
		if target := exportTarget(exports); target != "" {
			return target, nil
		}
	}
	if m.Main != "" {
		return m.Main, nil
	}
	return "", errors.New(errors.ErrCodeInvalidManifest, "%s@%s declares neither exports nor main", m.Name, m.Version)
}

func exportTarget(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		for _, item := range val {
			if t := exportTarget(item); t != "" {
				return t
			}
		}
	case map[string]any:
		if root, ok := val["."]; ok {
			return exportTarget(root)
		}
		for _, cond := range conditions {
			if c, ok := val[cond]; ok {
				if t := exportTarget(c); t != "" {
					return t
				}
			}
		}
	}
	return ""
}

// Commonified builds the manifest of the converted package from the source
// manifest. Metadata is copied verbatim, dependencies are replaced with the
// remapped deps, dev and optional dependencies pass through untouched, and
// scripts are emptied since they target the untransformed sources.
func Commonified(src *Manifest, name, version string, deps Deps) (*Manifest, error) {
	main, err := src.EntryPoint()
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Name:                 name,
		Version:              version,
		Description:          Description(src.Name, src.Version),
		Keywords:             src.Keywords,
		Homepage:             src.Homepage,
		Repository:           src.Repository,
		License:              src.License,
		Author:               src.Author,
		Main:                 strings.TrimSpace(main),
		Files:                src.Files,
		Directories:          src.Directories,
		Engines:              src.Engines,
		Scripts:              json.RawMessage(`{}`),
		Dependencies:         deps,
		DevDependencies:      src.DevDependencies,
		OptionalDependencies: src.OptionalDependencies,
	}, nil
}

// Description is the generated description of a converted package.
func Description(name, version string) string {
	return fmt.Sprintf("CommonJS version of %s %s.", name, version)
}
