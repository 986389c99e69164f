// Package npmtest provides an in-process npm registry for tests.
//
// The registry serves packuments and tarballs for packages published into it
// with [Registry.Publish], and records every request so tests can assert which
// packages were (or were not) queried.
//
//	reg := npmtest.New(t)
//	reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module"})
//	client := npm.NewClient(integrations.NewClient(nil, 0, nil), npm.WithBaseURL(reg.URL))
package npmtest

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"

	"github.com/mifi/commonify/pkg/manifest"
	"github.com/mifi/commonify/pkg/semver"
)

// Package describes one published version.
type Package struct {
	Name         string
	Version      string
	Type         string
	Main         string
	Exports      any
	Dependencies manifest.Deps
	// Files are extra tarball entries, keyed by path relative to the
	// package root.
	Files map[string]string
}

// Registry is a fake npm registry backed by an httptest.Server.
type Registry struct {
	*httptest.Server

	mu       sync.Mutex
	docs     map[string]*packument
	tarballs map[string][]byte
	failures map[string]int
	requests []string
}

type packument struct {
	Name     string                        `json:"name"`
	DistTags map[string]string             `json:"dist-tags"`
	Versions map[string]*manifest.Manifest `json:"versions"`
}

// New starts a registry that is shut down when the test ends.
func New(t testing.TB) *Registry {
	t.Helper()
	r := &Registry{
		docs:     make(map[string]*packument),
		tarballs: make(map[string][]byte),
		failures: make(map[string]int),
	}

	router := chi.NewRouter()
	router.Use(r.record)
	router.Get("/{name}", r.servePackument)
	router.Get("/{name}/-/{file}", r.serveTarball)
	r.Server = httptest.NewServer(router)
	t.Cleanup(r.Close)
	return r
}

// Publish adds a version and points the "latest" tag at the highest
// published version.
func (r *Registry) Publish(p Package) *manifest.Manifest {
	m := &manifest.Manifest{
		Name:         p.Name,
		Version:      p.Version,
		Type:         p.Type,
		Main:         p.Main,
		Dependencies: p.Dependencies,
	}
	if p.Exports != nil {
		m.Exports, _ = json.Marshal(p.Exports)
	}
	if m.Main == "" && m.Exports == nil {
		m.Main = "index.js"
	}

	file := tarballName(p.Name, p.Version)
	m.Dist = &manifest.Dist{
		Tarball: r.URL + "/" + url.PathEscape(p.Name) + "/-/" + file,
	}

	data := buildTarball(m, p.Files)

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[p.Name]
	if !ok {
		doc = &packument{
			Name:     p.Name,
			DistTags: make(map[string]string),
			Versions: make(map[string]*manifest.Manifest),
		}
		r.docs[p.Name] = doc
	}
	doc.Versions[p.Version] = m
	versions := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		versions = append(versions, v)
	}
	if sorted := semver.Sort(versions); len(sorted) > 0 {
		doc.DistTags["latest"] = sorted[len(sorted)-1]
	}
	r.tarballs[file] = data
	return m
}

// Tag points a dist-tag of name at version.
func (r *Registry) Tag(name, tag, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[name]; ok {
		doc.DistTags[tag] = version
	}
}

// Fail makes requests for the packument of name answer with status.
func (r *Registry) Fail(name string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[name] = status
}

// Requests returns the request paths served so far, unescaped.
func (r *Registry) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.requests)
}

// Queried reports whether the packument of name was requested.
func (r *Registry) Queried(name string) bool {
	return slices.Contains(r.Requests(), "/"+name)
}

func (r *Registry) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests = append(r.requests, req.URL.Path)
		r.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) servePackument(w http.ResponseWriter, req *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(req, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	status := r.failures[name]
	doc, ok := r.docs[name]
	var body []byte
	if ok {
		body, err = json.Marshal(doc)
	}
	r.mu.Unlock()

	switch {
	case status != 0:
		w.WriteHeader(status)
	case !ok:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}`))
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

func (r *Registry) serveTarball(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	data, ok := r.tarballs[chi.URLParam(req, "file")]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func tarballName(name, version string) string {
	if rest, ok := strings.CutPrefix(name, "@"); ok {
		name = strings.Replace(rest, "/", "__", 1)
	}
	return name + "-" + version + ".tgz"
}

// buildTarball packs the manifest and files under "package/", the layout
// npm pack produces.
func buildTarball(m *manifest.Manifest, files map[string]string) []byte {
	src := *m
	src.Dist = nil
	pkgJSON, _ := json.MarshalIndent(&src, "", "  ")

	entries := map[string][]byte{manifest.FileName: pkgJSON}
	for name, content := range files {
		entries[name] = []byte(content)
	}
	if _, ok := entries[strings.TrimPrefix(m.Main, "./")]; !ok && m.Main != "" {
		entries[strings.TrimPrefix(m.Main, "./")] = []byte("export default 1;\n")
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		data := entries[name]
		tw.WriteHeader(&tar.Header{
			Name:     "package/" + name,
			Mode:     0o644,
			Size:     int64(len(data)),
			ModTime:  time.Unix(0, 0),
			Typeflag: tar.TypeReg,
		})
		tw.Write(data)
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}
