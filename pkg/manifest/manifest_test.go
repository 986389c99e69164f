package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/mifi/commonify/pkg/errors"
)

const leftPad = `{
  "name": "left-pad",
  "version": "1.3.0",
  "type": "module",
  "description": "String left pad",
  "keywords": ["leftpad", "pad"],
  "homepage": "https://github.com/left-pad/left-pad#readme",
  "repository": {"type": "git", "url": "git+https://github.com/left-pad/left-pad.git"},
  "license": "WTFPL",
  "author": {"name": "azer"},
  "exports": {".": {"types": "./index.d.ts", "default": "./index.js"}},
  "files": ["index.js", "index.d.ts"],
  "engines": {"node": ">=14"},
  "scripts": {"test": "node test.js"},
  "dependencies": {"zeta": "^1.0.0", "is-number": "^7.0.0", "alpha": "~2.0.0"},
  "devDependencies": {"tape": "*"}
}`

func TestDepsKeepOrder(t *testing.T) {
	m, err := Parse([]byte(leftPad))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := []string{"zeta", "is-number", "alpha"}
	if got := m.Dependencies.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if v, ok := m.Dependencies.Get("is-number"); !ok || v != "^7.0.0" {
		t.Errorf("Get(is-number) = %q, %v", v, ok)
	}

	out, err := json.Marshal(m.Dependencies)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"zeta":"^1.0.0","is-number":"^7.0.0","alpha":"~2.0.0"}` {
		t.Errorf("MarshalJSON() = %s", out)
	}
}

func TestDepsDuplicateKey(t *testing.T) {
	var d Deps
	if err := json.Unmarshal([]byte(`{"a":"1","b":"2","a":"3"}`), &d); err != nil {
		t.Fatal(err)
	}
	if len(d) != 2 || d[0] != (Dep{"a", "3"}) || d[1] != (Dep{"b", "2"}) {
		t.Errorf("Deps = %v", d)
	}
}

func TestDepsRejectsNonObject(t *testing.T) {
	var d Deps
	if err := json.Unmarshal([]byte(`["a"]`), &d); err == nil {
		t.Error("expected error for array dependencies")
	}
}

func TestIsModule(t *testing.T) {
	m, _ := Parse([]byte(leftPad))
	if !m.IsModule() {
		t.Error("IsModule() = false, want true")
	}
	cjs, _ := Parse([]byte(`{"name":"x","version":"1.0.0"}`))
	if cjs.IsModule() {
		t.Error("IsModule() = true for package without type")
	}
}

func TestEntryPoint(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    string
		wantErr bool
	}{
		{"string exports", `{"exports":"./main.js"}`, "./main.js", false},
		{"subpath conditions", `{"exports":{".":{"import":"./esm.js","default":"./index.js"}}}`, "./index.js", false},
		{"top-level conditions", `{"exports":{"import":"./esm.js"}}`, "./esm.js", false},
		{"nested conditions", `{"exports":{".":{"node":{"import":"./node.js"}}}}`, "./node.js", false},
		{"array fallback", `{"exports":[{"worker":"./w.js"},"./index.js"]}`, "./index.js", false},
		{"main fallback", `{"main":"lib/index.js"}`, "lib/index.js", false},
		{"unusable exports falls back to main", `{"exports":{"browser":"./b.js"},"main":"m.js"}`, "m.js", false},
		{"nothing", `{"name":"x"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			got, err := m.EntryPoint()
			if (err != nil) != tt.wantErr {
				t.Fatalf("EntryPoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidManifest) {
				t.Errorf("EntryPoint() code = %v", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("EntryPoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommonified(t *testing.T) {
	src, _ := Parse([]byte(leftPad))
	deps := Deps{{"@acme/zeta", "1.0.4"}, {"is-number", "^7.0.0"}, {"alpha", "~2.0.0"}}

	out, err := Commonified(src, "@acme/left-pad", "1.3.0", deps)
	if err != nil {
		t.Fatalf("Commonified() error: %v", err)
	}

	if out.Name != "@acme/left-pad" || out.Version != "1.3.0" {
		t.Errorf("identity = %s@%s", out.Name, out.Version)
	}
	if out.Description != "CommonJS version of left-pad 1.3.0." {
		t.Errorf("Description = %q", out.Description)
	}
	if out.Main != "./index.js" {
		t.Errorf("Main = %q", out.Main)
	}
	if out.Type != "" || len(out.Exports) != 0 {
		t.Error("converted manifest must not carry type or exports")
	}
	if string(out.Scripts) != `{}` {
		t.Errorf("Scripts = %s, want {}", out.Scripts)
	}
	if string(out.Repository) != string(src.Repository) || string(out.Author) != string(src.Author) {
		t.Error("metadata not copied verbatim")
	}
	if !slices.Equal(out.Dependencies, deps) {
		t.Errorf("Dependencies = %v", out.Dependencies)
	}
	if !slices.Equal(out.DevDependencies, src.DevDependencies) {
		t.Errorf("DevDependencies = %v", out.DevDependencies)
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	src, _ := Parse([]byte(leftPad))
	out, err := Commonified(src, "@acme/left-pad", "1.3.1", Deps{{"@acme/is-number", "7.0.0"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Write(dir); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), `"dist"`) || strings.Contains(string(raw), `node test.js`) {
		t.Errorf("unexpected fields in written manifest:\n%s", raw)
	}
	if !strings.Contains(string(raw), `"scripts": {}`) {
		t.Errorf("written manifest should carry empty scripts:\n%s", raw)
	}

	back, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if v, _ := back.Dependencies.Get("@acme/is-number"); v != "7.0.0" {
		t.Errorf("round trip lost dependency: %v", back.Dependencies)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(t.TempDir())
	if !errors.Is(err, errors.ErrCodeFilesystem) {
		t.Errorf("Read() code = %v, want %v", errors.GetCode(err), errors.ErrCodeFilesystem)
	}
}
