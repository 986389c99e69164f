package npm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mifi/commonify/pkg/cache"
	cerrors "github.com/mifi/commonify/pkg/errors"
	"github.com/mifi/commonify/pkg/integrations"
	"github.com/mifi/commonify/pkg/manifest"
	"github.com/mifi/commonify/pkg/semver"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// ErrNotFound is returned by [Client.Lookup] when the package, or a version
// matching the query, does not exist. It is the same sentinel as
// [integrations.ErrNotFound].
var ErrNotFound = integrations.ErrNotFound

// tagPattern matches dist-tag names such as "latest" or "next".
var tagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// Client queries the npm registry for package manifests.
type Client struct {
	*integrations.Client
	baseURL string
	refresh bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another registry.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRefresh bypasses cached packuments.
func WithRefresh(refresh bool) Option {
	return func(c *Client) { c.refresh = refresh }
}

// NewClient creates an npm client on top of the shared HTTP client.
func NewClient(base *integrations.Client, opts ...Option) *Client {
	c := &Client{Client: base, baseURL: DefaultRegistry}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry root.
func (c *Client) BaseURL() string { return c.baseURL }

// Lookup returns the manifest of the version of name best matching query.
// An empty query or a dist-tag selects the tagged version, a concrete version
// selects exactly that version, and anything else is treated as a range and
// selects the highest satisfying version.
func (c *Client) Lookup(ctx context.Context, name, query string) (*manifest.Manifest, error) {
	return c.lookup(ctx, name, query, c.refresh)
}

// LookupFresh is Lookup with the packument always fetched from the
// registry. The fetched packument still replaces the cached one.
func (c *Client) LookupFresh(ctx context.Context, name, query string) (*manifest.Manifest, error) {
	return c.lookup(ctx, name, query, true)
}

func (c *Client) lookup(ctx context.Context, name, query string, refresh bool) (*manifest.Manifest, error) {
	name = strings.TrimSpace(name)
	if err := cerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	doc, err := c.packument(ctx, name, refresh)
	if err != nil {
		return nil, err
	}

	version, err := doc.selectVersion(query)
	if err != nil {
		return nil, err
	}

	m, ok := doc.Versions[version]
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, name, query)
	}
	if m.Name == "" {
		m.Name = name
	}
	if m.Version == "" {
		m.Version = version
	}
	return m, nil
}

func (c *Client) packument(ctx context.Context, name string, refresh bool) (*packument, error) {
	var doc packument
	key := cache.Key("npm", "packument", c.baseURL, name)
	err := c.Cached(ctx, key, refresh, &doc, func() error {
		return c.Get(ctx, c.baseURL+"/"+url.PathEscape(name), &doc)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: npm package %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("npm: fetch %s: %w", name, err)
	}
	return &doc, nil
}

type packument struct {
	Name     string                        `json:"name"`
	DistTags map[string]string             `json:"dist-tags"`
	Versions map[string]*manifest.Manifest `json:"versions"`
}

func (p *packument) selectVersion(query string) (string, error) {
	// Range tokens may carry whitespace ("^1.0.0 || ^2.0.0"); tags never do.
	query = strings.TrimSpace(query)
	if query == "" {
		query = "latest"
	}

	if v, ok := p.DistTags[strings.Join(strings.Fields(query), "")]; ok {
		return v, nil
	}

	if semver.IsConcrete(query) {
		v := semver.MustParseVersion(query).String()
		if _, ok := p.Versions[v]; ok {
			return v, nil
		}
		if _, ok := p.Versions[query]; ok {
			return query, nil
		}
		return "", fmt.Errorf("%w: %s@%s", ErrNotFound, p.Name, query)
	}

	constraint, err := semver.ParseConstraint(query)
	if err != nil {
		if tagPattern.MatchString(query) {
			return "", fmt.Errorf("%w: %s has no dist-tag %q", ErrNotFound, p.Name, query)
		}
		return "", cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "invalid version range %q for %s", query, p.Name)
	}

	published := make([]string, 0, len(p.Versions))
	for v := range p.Versions {
		published = append(published, v)
	}
	v, ok := semver.MaxSatisfying(constraint, published)
	if !ok {
		return "", fmt.Errorf("%w: %s@%s", ErrNotFound, p.Name, query)
	}
	return v, nil
}
