// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package answers "which published version of this package matches this
// query" against an npm registry (https://registry.npmjs.org by default). It
// fetches the package document (the "packument") listing every version and
// its dist-tags and selects the matching manifest locally.
//
// # Usage
//
//	base := integrations.NewClient(c, 10*time.Minute, nil)
//	client := npm.NewClient(base)
//
//	m, err := client.Lookup(ctx, "is-number", "^7.0.0")
//	if errors.Is(err, npm.ErrNotFound) {
//	    // no such package or no matching version
//	}
//	fmt.Println(m.Name, m.Version, m.Dist.Tarball)
//
// # Queries
//
//   - "" or a dist-tag ("latest", "next"): the tagged version
//   - a concrete version ("7.0.0"): exactly that version
//   - a range ("^7.0.0", ">=1 <3", "1.x"): the highest satisfying version
//
// A tag that is not published and a range no version satisfies both yield
// [ErrNotFound]. A malformed range yields an INVALID_INPUT error.
//
// # Scoped Packages
//
// Scoped names are requested as "@scope%2Fname", the form the registry
// expects.
//
// # Caching
//
// Packuments are cached through the shared [integrations.Client]. Use
// [WithRefresh] to bypass cached entries.
package npm
