// Package commonify republishes ES module npm packages, and the dependencies
// they pull in, as CommonJS packages under another scope.
//
// # Overview
//
// [Commonifier.Resolve] takes a package coordinate and a target scope and
// returns the identity of the converted package, "@scope/name" at some
// version. On the way it walks the package's runtime dependencies depth
// first and decides for each one whether to:
//
//   - keep it as is, because it is in the ignore set
//   - reuse a converted counterpart that already exists in the registry
//   - convert it first, recursively
//   - keep it as is, because it is not an ES module package
//
// Every package that gets converted is downloaded, rewritten and queued as a
// [PublishAction] on the [Session]. Dependencies are always queued before
// the packages that depend on them, so publishing the queue in order never
// references an unpublished package.
//
// # Usage
//
//	c := commonify.New(registry, fetcher, transformer, commonify.WithLogger(logger))
//	s, err := c.Run(ctx, commonify.Coordinate{Name: "left-pad", Version: "1.3.0"}, "acme", nil)
//	if err != nil {
//	    return err // nothing is published on error
//	}
//	for _, a := range s.Actions() {
//	    fmt.Println(a) // (cd left-pad-1.3.0/package && npm publish --access=public)
//	}
//
// # Versions
//
// A package already converted under the scope and matching "^version" is
// reused for dependencies. For the root package an existing conversion gets
// a patch bump instead, so asking for a package explicitly always produces
// something to publish.
//
// # Collaborators
//
// Registry access, tarball extraction and the source transform are reached
// through the [Registry], [Fetcher] and [Transformer] interfaces, implemented
// by [npm.Client], [archive.Fetcher] and [transform.Babel].
package commonify
