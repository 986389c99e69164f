package commonify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	cerrors "github.com/mifi/commonify/pkg/errors"
	"github.com/mifi/commonify/pkg/integrations"
	"github.com/mifi/commonify/pkg/integrations/npm"
	"github.com/mifi/commonify/pkg/manifest"
	"github.com/mifi/commonify/pkg/observability"
	"github.com/mifi/commonify/pkg/semver"
	"github.com/mifi/commonify/pkg/transform"
)

// Commonifier converts packages and their dependency trees.
type Commonifier struct {
	registry    Registry
	fetcher     Fetcher
	transformer Transformer
	logger      *log.Logger
	maxDepth    int
	access      string
}

// Option configures a Commonifier.
type Option func(*Commonifier)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Commonifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxDepth sets how deep [Commonifier.Run] follows dependencies.
func WithMaxDepth(n int) Option {
	return func(c *Commonifier) { c.maxDepth = n }
}

// WithAccess sets the access level of queued publish actions.
func WithAccess(access string) Option {
	return func(c *Commonifier) {
		if access != "" {
			c.access = access
		}
	}
}

// New creates a Commonifier.
func New(registry Registry, fetcher Fetcher, transformer Transformer, opts ...Option) *Commonifier {
	c := &Commonifier{
		registry:    registry,
		fetcher:     fetcher,
		transformer: transformer,
		logger:      log.Default(),
		maxDepth:    DefaultMaxDepth,
		access:      DefaultAccess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run converts root into scope, publishing a new version even if a converted
// version already exists. The returned session holds the publish queue; on
// error no session is returned, so nothing partial can be published.
func (c *Commonifier) Run(ctx context.Context, root Coordinate, scope string, ignore []string) (*Session, error) {
	root.Name = strings.TrimSpace(root.Name)
	root.Version = strings.TrimSpace(root.Version)
	if root.Name == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "package name is required")
	}
	if root.Version == "" {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "version is required")
	}
	if err := cerrors.ValidateNpmPackageName(root.Name); err != nil {
		return nil, err
	}
	if err := cerrors.ValidateScopeName(scope); err != nil {
		return nil, err
	}

	s := NewSession(root, scope)
	res, err := c.Resolve(ctx, s, Request{
		Coordinate:      root,
		Scope:           scope,
		MaxDepth:        c.maxDepth,
		PublishIfExists: true,
		Ignore:          NewIgnoreSet(ignore),
	})
	if err != nil {
		return nil, err
	}
	s.Result = res
	return s, nil
}

// Resolve converts the package in req, after converting its dependencies,
// and returns the converted identity. A nil result with a nil error means the
// package is not an ES module package and was left alone.
func (c *Commonifier) Resolve(ctx context.Context, s *Session, req Request) (*Result, error) {
	hooks := observability.Resolver()
	hooks.OnResolveStart(ctx, req.Name, req.Version, req.Depth)
	start := time.Now()

	res, err := c.resolve(ctx, s, req)
	hooks.OnResolveComplete(ctx, req.Name, req.Version, res != nil, time.Since(start), err)
	return res, err
}

func (c *Commonifier) resolve(ctx context.Context, s *Session, req Request) (*Result, error) {
	if req.Depth > req.MaxDepth {
		return nil, cerrors.New(cerrors.ErrCodeDepthExceeded, "max recursion depth %d reached at %s", req.MaxDepth, req.Coordinate)
	}
	if err := cerrors.ValidateScopeName(req.Scope); err != nil {
		return nil, err
	}
	if err := cerrors.ValidatePackageName(req.Name); err != nil {
		return nil, err
	}

	logger := c.logger.With("depth", req.Depth)
	logger.Info("commonify", "package", req.Name, "version", req.Version, "scope", req.Scope)

	version := strings.TrimSpace(req.Version)
	var src *manifest.Manifest
	if !semver.IsConcrete(version) {
		logger.Debug("resolving version", "package", req.Name, "query", version)
		m, err := c.lookup(ctx, req.Name, version)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, cerrors.New(cerrors.ErrCodePackageNotFound, "failed to resolve %s %s", req.Name, version)
		}
		version, src = m.Version, m
	}

	coord := Coordinate{Name: req.Name, Version: version}
	if !req.PublishIfExists {
		if res, ok := s.recall(coord); ok {
			logger.Debug("already handled in this run", "package", coord)
			return res, nil
		}
	}

	newName := NewName(req.Scope, req.Name)

	existing, err := c.lookupPublished(ctx, newName, semver.Caret(version))
	if err != nil {
		return nil, err
	}

	var newVersion string
	if existing != nil {
		if !req.PublishIfExists {
			res := &Result{Name: newName, Version: existing.Version}
			logger.Info("already commonified", "package", res)
			s.remember(coord, res)
			return res, nil
		}
		newVersion, err = semver.IncPatch(existing.Version)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeRegistry, err, "%s has invalid version %q", newName, existing.Version)
		}
		logger.Info("upgrading existing version", "package", newName, "from", existing.Version, "to", newVersion)
		if src == nil {
			if src, err = c.source(ctx, coord); err != nil {
				return nil, err
			}
		}
	} else {
		if src == nil {
			if src, err = c.source(ctx, coord); err != nil {
				return nil, err
			}
		}
		if !src.IsModule() {
			logger.Info("not an ES module, skipping", "package", coord)
			s.remember(coord, nil)
			return nil, nil
		}
		logger.Info("creating version from source package", "package", newName, "version", src.Version)
		newVersion = src.Version
	}

	pkg, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, classify(ctx, err, cerrors.ErrCodeFilesystem, "fetch %s", coord)
	}
	if _, err := pkg.Manifest.EntryPoint(); err != nil {
		return nil, err
	}

	deps, edges, err := c.remap(ctx, s, req, pkg.Manifest.Dependencies)
	if err != nil {
		return nil, err
	}

	out, err := manifest.Commonified(pkg.Manifest, newName, newVersion, deps)
	if err != nil {
		return nil, err
	}

	aliases := make(map[string]string, len(edges))
	for _, e := range edges {
		aliases[e.From] = e.To
	}
	if err := c.transformer.Transform(ctx, transform.Request{Dir: pkg.Dir, Src: pkg.Root, Aliases: aliases}); err != nil {
		return nil, classify(ctx, err, cerrors.ErrCodeTransform, "transform %s", coord)
	}
	if err := out.Write(pkg.Root); err != nil {
		return nil, err
	}

	res := &Result{Name: newName, Version: newVersion}
	s.queue(PublishAction{Dir: pkg.Root, Access: c.access}, Record{
		Source:       coord,
		Result:       *res,
		Depth:        req.Depth,
		Dependencies: deps,
		Edges:        edges,
	})
	if !req.PublishIfExists {
		s.remember(coord, res)
	}
	logger.Info("ready to publish", "package", res)
	return res, nil
}

// remap rewrites deps in declaration order. Only renamed dependencies are
// reported as edges.
func (c *Commonifier) remap(ctx context.Context, s *Session, req Request, deps manifest.Deps) (manifest.Deps, []Edge, error) {
	if deps == nil {
		return nil, nil, nil
	}
	out := make(manifest.Deps, 0, len(deps))
	var edges []Edge

	for _, dep := range deps {
		if req.Ignore[dep.Name] {
			c.logger.Debug("dep ignore", "package", dep.Name, "range", dep.Version)
			out = append(out, dep)
			continue
		}
		if !isRegistrySpec(dep.Version) {
			c.logger.Debug("dep pass thru, not a registry version", "package", dep.Name, "spec", dep.Version)
			out = append(out, dep)
			continue
		}

		newName := NewName(req.Scope, dep.Name)
		found, err := c.lookupPublished(ctx, newName, dep.Version)
		if err != nil {
			return nil, nil, err
		}

		var res *Result
		if found != nil {
			res = &Result{Name: newName, Version: found.Version}
		} else {
			c.logger.Debug("no commonified dependency, converting", "package", newName, "range", dep.Version)
			child := req
			child.Coordinate = Coordinate{Name: dep.Name, Version: dep.Version}
			child.Depth++
			child.PublishIfExists = false
			if res, err = c.Resolve(ctx, s, child); err != nil {
				return nil, nil, err
			}
		}

		if res == nil {
			c.logger.Debug("dep pass thru", "package", dep.Name, "range", dep.Version)
			out = append(out, dep)
			continue
		}
		out = append(out, manifest.Dep{Name: res.Name, Version: res.Version})
		edges = append(edges, Edge{From: dep.Name, To: res.Name})
	}
	return out, edges, nil
}

// source looks up the manifest of a source package version.
func (c *Commonifier) source(ctx context.Context, coord Coordinate) (*manifest.Manifest, error) {
	m, err := c.lookup(ctx, coord.Name, coord.Version)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, cerrors.New(cerrors.ErrCodePackageNotFound, "cannot find package %s in the registry", coord)
	}
	return m, nil
}

// lookup queries the registry. Not found is reported as a nil manifest.
func (c *Commonifier) lookup(ctx context.Context, name, query string) (*manifest.Manifest, error) {
	c.logger.Debug("lookup", "name", name, "query", query)
	m, err := c.registry.Lookup(ctx, name, query)
	return c.lookupResult(ctx, name, query, m, err)
}

// lookupPublished queries the registry for a package in the target scope.
// Those change with every publish, so cached packuments are skipped.
func (c *Commonifier) lookupPublished(ctx context.Context, name, query string) (*manifest.Manifest, error) {
	c.logger.Debug("lookup", "name", name, "query", query, "fresh", true)
	m, err := c.registry.LookupFresh(ctx, name, query)
	return c.lookupResult(ctx, name, query, m, err)
}

func (c *Commonifier) lookupResult(ctx context.Context, name, query string, m *manifest.Manifest, err error) (*manifest.Manifest, error) {
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, npm.ErrNotFound):
		return nil, nil
	default:
		return nil, classify(ctx, err, cerrors.ErrCodeRegistry, "lookup %s@%s", name, query)
	}
}

// classify gives collaborator errors a code, NETWORK_ERROR for transport
// failures and code otherwise. Errors that already carry a code and context
// cancellation pass through unchanged.
func classify(ctx context.Context, err error, code cerrors.Code, format string, args ...any) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case cerrors.GetCode(err) != "":
		return err
	case errors.Is(err, integrations.ErrNetwork), errors.Is(err, integrations.ErrUpstreamDown):
		return cerrors.Wrap(cerrors.ErrCodeNetwork, err, format, args...)
	default:
		return cerrors.Wrap(code, err, format, args...)
	}
}
