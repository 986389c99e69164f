package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Dep is one entry of a dependency map: a package name and its version range.
type Dep struct {
	Name    string
	Version string
}

// Deps is a dependency map that keeps the declaration order of package.json.
// Remapping walks dependencies in this order, which keeps registry queries and
// publish order reproducible across runs.
type Deps []Dep

// Get returns the range declared for name.
func (d Deps) Get(name string) (string, bool) {
	for _, dep := range d {
		if dep.Name == name {
			return dep.Version, true
		}
	}
	return "", false
}

// Names returns the dependency names in declaration order.
func (d Deps) Names() []string {
	names := make([]string, len(d))
	for i, dep := range d {
		names[i] = dep.Name
	}
	return names
}

// UnmarshalJSON decodes a JSON object while preserving key order.
// A later duplicate key replaces the earlier value in place.
func (d *Deps) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dependencies: expected object, got %v", tok)
	}

	out := Deps{}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dependencies: expected key, got %v", tok)
		}
		var version string
		if err := dec.Decode(&version); err != nil {
			return fmt.Errorf("dependencies: %s: %w", name, err)
		}
		if i, dup := index[name]; dup {
			out[i].Version = version
			continue
		}
		index[name] = len(out)
		out = append(out, Dep{Name: name, Version: version})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON encodes the map in declaration order.
func (d Deps) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dep := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(dep.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(dep.Version)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
