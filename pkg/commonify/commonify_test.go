package commonify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mifi/commonify/pkg/archive"
	"github.com/mifi/commonify/pkg/cache"
	cerrors "github.com/mifi/commonify/pkg/errors"
	"github.com/mifi/commonify/pkg/integrations"
	"github.com/mifi/commonify/pkg/integrations/npm"
	"github.com/mifi/commonify/pkg/integrations/npm/npmtest"
	"github.com/mifi/commonify/pkg/manifest"
	"github.com/mifi/commonify/pkg/observability"
	"github.com/mifi/commonify/pkg/transform"
)

type recordingTransformer struct {
	reqs []transform.Request
	err  error
}

func (r *recordingTransformer) Transform(ctx context.Context, req transform.Request) error {
	r.reqs = append(r.reqs, req)
	return r.err
}

type fixture struct {
	reg         *npmtest.Registry
	work        string
	transformer *recordingTransformer
	c           *Commonifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newCachedFixture(t, nil, opts...)
}

// newCachedFixture keeps registry responses in c across runs.
func newCachedFixture(t *testing.T, c cache.Cache, opts ...Option) *fixture {
	t.Helper()
	reg := npmtest.New(t)
	client := integrations.NewClient(c, time.Hour, nil,
		integrations.WithHTTPClient(reg.Client()),
		integrations.WithRetries(0, time.Millisecond))
	logger := log.New(io.Discard)
	work := t.TempDir()
	tr := &recordingTransformer{}

	opts = append([]Option{WithLogger(logger)}, opts...)
	cm := New(
		npm.NewClient(client, npm.WithBaseURL(reg.URL)),
		archive.NewFetcher(client, work, logger),
		tr,
		opts...,
	)
	return &fixture{reg: reg, work: work, transformer: tr, c: cm}
}

func (f *fixture) publishDir(name, version string) string {
	return filepath.Join(f.work, archive.DirName(name, version), archive.PackageDir)
}

func (f *fixture) fetched(name string) bool {
	return slices.ContainsFunc(f.reg.Requests(), func(p string) bool {
		return strings.HasPrefix(p, "/"+name+"/-/")
	})
}

func deps(pairs ...string) manifest.Deps {
	var d manifest.Deps
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, manifest.Dep{Name: pairs[i], Version: pairs[i+1]})
	}
	return d
}

func TestRunLeftPad(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module"})
	f.reg.Publish(npmtest.Package{
		Name:         "left-pad",
		Version:      "1.3.0",
		Type:         "module",
		Exports:      map[string]any{".": map[string]string{"import": "./index.js"}},
		Dependencies: deps("is-number", "^7.0.0"),
	})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if s.Result == nil || *s.Result != (Result{Name: "@acme/left-pad", Version: "1.3.0"}) {
		t.Errorf("Result = %v", s.Result)
	}

	want := []PublishAction{
		{Dir: f.publishDir("is-number", "7.0.0"), Access: "public"},
		{Dir: f.publishDir("left-pad", "1.3.0"), Access: "public"},
	}
	if got := s.Actions(); !slices.Equal(got, want) {
		t.Fatalf("Actions() = %v, want %v", got, want)
	}

	m, err := manifest.Read(f.publishDir("left-pad", "1.3.0"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "@acme/left-pad" || m.Version != "1.3.0" {
		t.Errorf("manifest identity = %s@%s", m.Name, m.Version)
	}
	if v, ok := m.Dependencies.Get("@acme/is-number"); !ok || v != "7.0.0" {
		t.Errorf("dependencies = %v", m.Dependencies)
	}
	if m.Description != "CommonJS version of left-pad 1.3.0." {
		t.Errorf("description = %q", m.Description)
	}
	if m.Main != "./index.js" {
		t.Errorf("main = %q", m.Main)
	}

	if len(f.transformer.reqs) != 2 {
		t.Fatalf("transform calls = %d, want 2", len(f.transformer.reqs))
	}
	if len(f.transformer.reqs[0].Aliases) != 0 {
		t.Errorf("is-number aliases = %v, want none", f.transformer.reqs[0].Aliases)
	}
	if got := f.transformer.reqs[1].Aliases; len(got) != 1 || got["is-number"] != "@acme/is-number" {
		t.Errorf("left-pad aliases = %v", got)
	}

	records := s.Records()
	if len(records) != 2 || records[1].Edges[0] != (Edge{From: "is-number", To: "@acme/is-number"}) {
		t.Errorf("Records() = %+v", records)
	}
}

func TestResolveExistingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "@acme/left-pad", Version: "1.3.2"})

	req := Request{
		Coordinate: Coordinate{Name: "left-pad", Version: "1.3.0"},
		Scope:      "acme",
		MaxDepth:   DefaultMaxDepth,
	}
	s := NewSession(req.Coordinate, req.Scope)
	for i := range 2 {
		res, err := f.c.Resolve(context.Background(), s, req)
		if err != nil {
			t.Fatalf("Resolve() #%d error: %v", i, err)
		}
		if res == nil || *res != (Result{Name: "@acme/left-pad", Version: "1.3.2"}) {
			t.Errorf("Resolve() #%d = %v", i, res)
		}
	}
	if n := len(s.Actions()); n != 0 {
		t.Errorf("queued %d actions, want 0", n)
	}
	if f.fetched("left-pad") {
		t.Error("existing package must not be fetched")
	}
}

func TestRunBumpsPatchOfExisting(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "@acme/left-pad", Version: "1.3.0"})
	f.reg.Publish(npmtest.Package{Name: "@acme/left-pad", Version: "1.3.4"})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.Result.Version != "1.3.5" {
		t.Errorf("version = %s, want 1.3.5", s.Result.Version)
	}
	if n := len(s.Actions()); n != 1 {
		t.Fatalf("queued %d actions, want 1", n)
	}
	m, err := manifest.Read(f.publishDir("left-pad", "1.3.0"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Version != "1.3.5" {
		t.Errorf("manifest version = %s, want 1.3.5", m.Version)
	}
	if m.Description != "CommonJS version of left-pad 1.3.0." {
		t.Errorf("description = %q", m.Description)
	}
}

func fileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRunBumpsPastVersionsPublishedSinceLastRun(t *testing.T) {
	f := newCachedFixture(t, fileCache(t))
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "@acme/left-pad", Version: "1.3.0"})

	root := Coordinate{Name: "left-pad", Version: "1.3.0"}
	s, err := f.c.Run(context.Background(), root, "acme", nil)
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if s.Result.Version != "1.3.1" {
		t.Fatalf("first version = %s, want 1.3.1", s.Result.Version)
	}

	f.reg.Publish(npmtest.Package{Name: "@acme/left-pad", Version: "1.3.1"})

	s, err = f.c.Run(context.Background(), root, "acme", nil)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if s.Result.Version != "1.3.2" {
		t.Errorf("second version = %s, want 1.3.2", s.Result.Version)
	}
}

func TestRunAdoptsDependencyVersionsPublishedSinceLastRun(t *testing.T) {
	f := newCachedFixture(t, fileCache(t))
	f.reg.Publish(npmtest.Package{Name: "app", Version: "1.0.0", Type: "module", Dependencies: deps("dep", "^1.0.0")})
	f.reg.Publish(npmtest.Package{Name: "@acme/dep", Version: "1.0.0"})

	root := Coordinate{Name: "app", Version: "1.0.0"}
	if _, err := f.c.Run(context.Background(), root, "acme", nil); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	f.reg.Publish(npmtest.Package{Name: "@acme/dep", Version: "1.0.1"})

	if _, err := f.c.Run(context.Background(), root, "acme", nil); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	m, err := manifest.Read(f.publishDir("app", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Dependencies.Get("@acme/dep"); v != "1.0.1" {
		t.Errorf("@acme/dep = %q, want 1.0.1", v)
	}
}

// publishChain publishes p0 -> p1 -> ... -> p(n-1), each an ES module.
func publishChain(reg *npmtest.Registry, n int) {
	for i := range n {
		p := npmtest.Package{Name: chainName(i), Version: "1.0.0", Type: "module"}
		if i+1 < n {
			p.Dependencies = deps(chainName(i+1), "^1.0.0")
		}
		reg.Publish(p)
	}
}

func chainName(i int) string {
	return "p" + string(rune('0'+i))
}

func TestDepthBound(t *testing.T) {
	t.Run("within bound", func(t *testing.T) {
		f := newFixture(t)
		publishChain(f.reg, DefaultMaxDepth+1)

		s, err := f.c.Run(context.Background(), Coordinate{Name: "p0", Version: "1.0.0"}, "acme", nil)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if n := len(s.Actions()); n != DefaultMaxDepth+1 {
			t.Errorf("queued %d actions, want %d", n, DefaultMaxDepth+1)
		}
	})

	t.Run("exceeded", func(t *testing.T) {
		f := newFixture(t)
		publishChain(f.reg, DefaultMaxDepth+2)

		req := Request{
			Coordinate:      Coordinate{Name: "p0", Version: "1.0.0"},
			Scope:           "acme",
			MaxDepth:        DefaultMaxDepth,
			PublishIfExists: true,
		}
		s := NewSession(req.Coordinate, req.Scope)
		_, err := f.c.Resolve(context.Background(), s, req)
		if !cerrors.Is(err, cerrors.ErrCodeDepthExceeded) {
			t.Fatalf("Resolve() error = %v, want DEPTH_EXCEEDED", err)
		}
		if n := len(s.Actions()); n != 0 {
			t.Errorf("queued %d actions, want 0", n)
		}
	})

	t.Run("custom max depth", func(t *testing.T) {
		f := newFixture(t, WithMaxDepth(1))
		publishChain(f.reg, 3)

		s, err := f.c.Run(context.Background(), Coordinate{Name: "p0", Version: "1.0.0"}, "acme", nil)
		if !cerrors.Is(err, cerrors.ErrCodeDepthExceeded) {
			t.Errorf("Run() error = %v, want DEPTH_EXCEEDED", err)
		}
		if s != nil {
			t.Error("Run() must not return a session on error")
		}
	})
}

func TestIgnoreSetPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "react", Version: "18.2.0", Type: "module"})
	f.reg.Publish(npmtest.Package{
		Name:         "left-pad",
		Version:      "1.3.0",
		Type:         "module",
		Dependencies: deps("react", ">=16 <19", "is-number", "^7.0.0"),
	})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", []string{"react", " "})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, name := range []string{"react", "@acme/react"} {
		if f.reg.Queried(name) {
			t.Errorf("ignored dependency queried as %s", name)
		}
	}

	m, err := manifest.Read(f.publishDir("left-pad", "1.3.0"))
	if err != nil {
		t.Fatal(err)
	}
	want := deps("react", ">=16 <19", "@acme/is-number", "7.0.0")
	if !slices.Equal(m.Dependencies, want) {
		t.Errorf("dependencies = %v, want %v", m.Dependencies, want)
	}

	records := s.Records()
	last := records[len(records)-1]
	if len(last.Edges) != 1 || last.Edges[0].From != "is-number" {
		t.Errorf("edges = %v, want only is-number", last.Edges)
	}
}

func TestIneligibleDependencyPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "cjs-only", Version: "2.1.0"})
	f.reg.Publish(npmtest.Package{
		Name:         "left-pad",
		Version:      "1.3.0",
		Type:         "module",
		Dependencies: deps("cjs-only", "^2.0.0", "gh-dep", "github:someone/gh-dep"),
	})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n := len(s.Actions()); n != 1 {
		t.Errorf("queued %d actions, want 1", n)
	}
	if f.fetched("cjs-only") {
		t.Error("ineligible package must not be fetched")
	}
	if f.reg.Queried("@acme/gh-dep") {
		t.Error("non-registry dependency must not be queried")
	}

	m, err := manifest.Read(f.publishDir("left-pad", "1.3.0"))
	if err != nil {
		t.Fatal(err)
	}
	if want := deps("cjs-only", "^2.0.0", "gh-dep", "github:someone/gh-dep"); !slices.Equal(m.Dependencies, want) {
		t.Errorf("dependencies = %v, want %v", m.Dependencies, want)
	}
	if edges := s.Records()[0].Edges; len(edges) != 0 {
		t.Errorf("edges = %v, want none", edges)
	}
	if aliases := f.transformer.reqs[0].Aliases; len(aliases) != 0 {
		t.Errorf("aliases = %v, want none", aliases)
	}
}

func TestExistingDependencyIsAdopted(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "@acme/is-number", Version: "7.0.3"})
	f.reg.Publish(npmtest.Package{
		Name:         "left-pad",
		Version:      "1.3.0",
		Type:         "module",
		Dependencies: deps("is-number", "^7.0.0"),
	})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n := len(s.Actions()); n != 1 {
		t.Errorf("queued %d actions, want 1", n)
	}
	if f.fetched("is-number") {
		t.Error("dependency with an existing conversion must not be fetched")
	}
	m, _ := manifest.Read(f.publishDir("left-pad", "1.3.0"))
	if v, _ := m.Dependencies.Get("@acme/is-number"); v != "7.0.3" {
		t.Errorf("@acme/is-number = %q, want 7.0.3", v)
	}
	if got := f.transformer.reqs[0].Aliases["is-number"]; got != "@acme/is-number" {
		t.Errorf("alias = %q", got)
	}
}

func TestSharedDependencyConvertedOnce(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "c", Version: "1.0.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "b", Version: "1.0.0", Type: "module", Dependencies: deps("c", "^1.0.0")})
	f.reg.Publish(npmtest.Package{Name: "a", Version: "1.0.0", Type: "module", Dependencies: deps("b", "^1.0.0", "c", "^1.0.0")})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "a", Version: "1.0.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var got []string
	for _, r := range s.Records() {
		got = append(got, r.Result.Name)
	}
	if want := []string{"@acme/c", "@acme/b", "@acme/a"}; !slices.Equal(got, want) {
		t.Errorf("publish order = %v, want %v", got, want)
	}
}

func TestRunResolvesRange(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module"})
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.1.0", Type: "module"})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "is-number", Version: " ^7.0.0 "}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.Result.Version != "7.1.0" {
		t.Errorf("version = %s, want 7.1.0", s.Result.Version)
	}
}

func TestRunRootIneligible(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "lodash", Version: "4.17.21"})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "lodash", Version: "4.17.21"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s.Result != nil || len(s.Actions()) != 0 {
		t.Errorf("Result = %v, actions = %v", s.Result, s.Actions())
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*npmtest.Registry)
		root  Coordinate
		scope string
		code  cerrors.Code
	}{
		{
			name:  "scope with delimiter",
			root:  Coordinate{Name: "left-pad", Version: "1.3.0"},
			scope: "@acme",
			code:  cerrors.ErrCodeInvalidInput,
		},
		{
			name:  "missing version",
			root:  Coordinate{Name: "left-pad"},
			scope: "acme",
			code:  cerrors.ErrCodeInvalidInput,
		},
		{
			name:  "unknown package",
			root:  Coordinate{Name: "left-pad", Version: "1.3.0"},
			scope: "acme",
			code:  cerrors.ErrCodePackageNotFound,
		},
		{
			name: "unresolvable range",
			setup: func(reg *npmtest.Registry) {
				reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})
			},
			root:  Coordinate{Name: "left-pad", Version: "^2.0.0"},
			scope: "acme",
			code:  cerrors.ErrCodePackageNotFound,
		},
		{
			name: "missing dependency",
			setup: func(reg *npmtest.Registry) {
				reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module", Dependencies: deps("ghost", "^1.0.0")})
			},
			root:  Coordinate{Name: "left-pad", Version: "1.3.0"},
			scope: "acme",
			code:  cerrors.ErrCodePackageNotFound,
		},
		{
			name: "registry failure",
			setup: func(reg *npmtest.Registry) {
				reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module", Dependencies: deps("is-number", "^7.0.0")})
				reg.Fail("is-number", http.StatusInternalServerError)
			},
			root:  Coordinate{Name: "left-pad", Version: "1.3.0"},
			scope: "acme",
			code:  cerrors.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f.reg)
			}
			s, err := f.c.Run(context.Background(), tt.root, tt.scope, nil)
			if !cerrors.Is(err, tt.code) {
				t.Errorf("Run() error = %v, want %s", err, tt.code)
			}
			if s != nil {
				t.Error("Run() must not return a session on error")
			}
		})
	}
}

func TestRunTransformFailure(t *testing.T) {
	f := newFixture(t)
	f.transformer.err = errors.New("babel exploded")
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})

	_, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if !cerrors.Is(err, cerrors.ErrCodeTransform) {
		t.Errorf("Run() error = %v, want TRANSFORM_FAILED", err)
	}
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.c.Run(ctx, Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestWithAccess(t *testing.T) {
	f := newFixture(t, WithAccess("restricted"))
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module"})

	s, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := s.Actions()[0].String(); !strings.HasSuffix(got, "npm publish --access=restricted)") {
		t.Errorf("action = %s", got)
	}
}

func TestNewName(t *testing.T) {
	tests := []struct {
		scope, name, want string
	}{
		{"acme", "left-pad", "@acme/left-pad"},
		{"acme", "lodash.merge", "@acme/lodash.merge"},
		{"acme", "@babel/core", "@acme/babel__core"},
	}
	for _, tt := range tests {
		if got := NewName(tt.scope, tt.name); got != tt.want {
			t.Errorf("NewName(%q, %q) = %q, want %q", tt.scope, tt.name, got, tt.want)
		}
	}
}

func TestPublishActionString(t *testing.T) {
	a := PublishAction{Dir: "left-pad-1.3.0/package", Access: "public"}
	if got, want := a.String(), "(cd left-pad-1.3.0/package && npm publish --access=public)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

type resolveEvent struct {
	name     string
	depth    int
	eligible bool
	err      bool
}

type recordingHooks struct {
	started   []resolveEvent
	completed []resolveEvent
}

func (h *recordingHooks) OnResolveStart(_ context.Context, name, _ string, depth int) {
	h.started = append(h.started, resolveEvent{name: name, depth: depth})
}

func (h *recordingHooks) OnResolveComplete(_ context.Context, name, _ string, eligible bool, _ time.Duration, err error) {
	h.completed = append(h.completed, resolveEvent{name: name, eligible: eligible, err: err != nil})
}

func TestResolveHooks(t *testing.T) {
	hooks := &recordingHooks{}
	var _ observability.ResolverHooks = hooks
	observability.SetResolverHooks(hooks)
	t.Cleanup(observability.Reset)

	f := newFixture(t)
	f.reg.Publish(npmtest.Package{Name: "lodash", Version: "4.17.21"})
	f.reg.Publish(npmtest.Package{Name: "is-number", Version: "7.0.0", Type: "module", Dependencies: deps("lodash", "^4.17.0")})
	f.reg.Publish(npmtest.Package{Name: "left-pad", Version: "1.3.0", Type: "module", Dependencies: deps("is-number", "^7.0.0")})

	if _, err := f.c.Run(context.Background(), Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantStarted := []resolveEvent{{name: "left-pad"}, {name: "is-number", depth: 1}, {name: "lodash", depth: 2}}
	if !slices.Equal(hooks.started, wantStarted) {
		t.Errorf("started = %+v, want %+v", hooks.started, wantStarted)
	}
	wantCompleted := []resolveEvent{{name: "lodash"}, {name: "is-number", eligible: true}, {name: "left-pad", eligible: true}}
	if !slices.Equal(hooks.completed, wantCompleted) {
		t.Errorf("completed = %+v, want %+v", hooks.completed, wantCompleted)
	}
}
