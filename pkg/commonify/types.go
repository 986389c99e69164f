package commonify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mifi/commonify/pkg/archive"
	"github.com/mifi/commonify/pkg/manifest"
	"github.com/mifi/commonify/pkg/transform"
)

// DefaultMaxDepth bounds how many levels of dependencies are converted.
const DefaultMaxDepth = 3

// DefaultAccess is the npm publish access level.
const DefaultAccess = "public"

// Registry finds published package versions. Lookup may answer from a
// cache; LookupFresh always asks the registry. Both return an error
// matching npm.ErrNotFound when nothing matches.
type Registry interface {
	Lookup(ctx context.Context, name, query string) (*manifest.Manifest, error)
	LookupFresh(ctx context.Context, name, query string) (*manifest.Manifest, error)
}

// Fetcher downloads and extracts a package version.
type Fetcher interface {
	Fetch(ctx context.Context, m *manifest.Manifest) (*archive.Package, error)
}

// Transformer converts an extracted package to CommonJS in place.
type Transformer interface {
	Transform(ctx context.Context, req transform.Request) error
}

// Coordinate identifies a package by name and version, range or dist-tag.
type Coordinate struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
}

func (c Coordinate) String() string {
	return c.Name + "@" + c.Version
}

// Request is one resolution step. It is passed by value so each level of the
// recursion carries its own depth.
type Request struct {
	Coordinate
	Scope           string
	Depth           int
	MaxDepth        int
	PublishIfExists bool
	Ignore          IgnoreSet
}

// IgnoreSet holds dependency names that are never rewritten.
type IgnoreSet map[string]bool

// NewIgnoreSet builds an IgnoreSet, skipping blank names.
func NewIgnoreSet(names []string) IgnoreSet {
	set := make(IgnoreSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = true
		}
	}
	return set
}

// Result is the identity of a converted package.
type Result struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version" bson:"version"`
}

func (r Result) String() string {
	return r.Name + "@" + r.Version
}

// Edge records that a dependency was renamed.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// PublishAction publishes one converted package directory.
type PublishAction struct {
	Dir    string `json:"dir" bson:"dir"`
	Access string `json:"access" bson:"access"`
}

// String returns the shell command that performs the action.
func (a PublishAction) String() string {
	return fmt.Sprintf("(cd %s && npm publish --access=%s)", a.Dir, a.Access)
}

// NewName returns the name of the converted package. Scoped source packages
// keep their scope in the name, "@babel/core" becoming "@acme/babel__core".
func NewName(scope, name string) string {
	if rest, ok := strings.CutPrefix(name, "@"); ok {
		name = strings.Replace(rest, "/", "__", 1)
	}
	return "@" + scope + "/" + name
}

// isRegistrySpec reports whether a dependency version can be looked up in a
// registry. Git, URL, file and alias specs cannot.
func isRegistrySpec(v string) bool {
	return !strings.ContainsAny(v, ":/")
}
