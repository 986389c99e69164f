// Package manifest models package.json documents as they appear both in
// registry responses and inside package tarballs.
//
// Metadata that commonify copies without interpreting (keywords, repository,
// author, license, engines, files, directories, exports) is held as raw JSON so
// it round-trips byte-for-byte regardless of which of npm's many accepted
// shapes the source package used. Dependency maps use [Deps], which keeps
// declaration order.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mifi/commonify/pkg/errors"
)

// FileName is the manifest file name inside a package directory.
const FileName = "package.json"

// TypeModule is the "type" value that marks a package as ES module only.
const TypeModule = "module"

// Manifest is a package.json document.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`

	Keywords    json.RawMessage `json:"keywords,omitempty"`
	Homepage    json.RawMessage `json:"homepage,omitempty"`
	Repository  json.RawMessage `json:"repository,omitempty"`
	License     json.RawMessage `json:"license,omitempty"`
	Author      json.RawMessage `json:"author,omitempty"`
	Main        string          `json:"main,omitempty"`
	Exports     json.RawMessage `json:"exports,omitempty"`
	Files       json.RawMessage `json:"files,omitempty"`
	Directories json.RawMessage `json:"directories,omitempty"`
	Engines     json.RawMessage `json:"engines,omitempty"`

	Scripts              json.RawMessage `json:"scripts,omitempty"`
	Dependencies         Deps            `json:"dependencies,omitempty"`
	DevDependencies      Deps            `json:"devDependencies,omitempty"`
	OptionalDependencies Deps            `json:"optionalDependencies,omitempty"`

	// Dist is only present in registry responses.
	Dist *Dist `json:"dist,omitempty"`
}

// Dist describes the published tarball of a registry version.
type Dist struct {
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity,omitempty"`
	Shasum    string `json:"shasum,omitempty"`
}

// IsModule reports whether the package is published as pure ES module.
func (m *Manifest) IsModule() bool {
	return m.Type == TypeModule
}

// Parse decodes a package.json document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", FileName)
	}
	return &m, nil
}

// Read parses the package.json in dir.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read %s", path)
	}
	return Parse(data)
}

// Write stores m as dir/package.json, indented the way npm writes it.
func (m *Manifest) Write(dir string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode %s: %w", FileName, err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write %s", path)
	}
	return nil
}
