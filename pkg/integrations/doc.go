// Package integrations provides the shared HTTP client for package registry
// APIs.
//
// # Overview
//
// Registry-specific clients live in subpackages and embed [Client]:
//
//   - [npm]: the npm registry, packuments and dist-tags
//
// # Client Pattern
//
//	base := integrations.NewClient(c, 10*time.Minute, map[string]string{
//	    "Accept": "application/json",
//	})
//	client := npm.NewClient(base, npm.WithBaseURL(npm.DefaultRegistry))
//	m, err := client.Lookup(ctx, "left-pad", "^1.3.0")
//
// [Client] handles:
//   - Response caching through [cache.Cache] with a configurable TTL
//   - Retries with exponential backoff for transient failures
//   - A circuit breaker per host, so a registry that keeps failing is not
//     hammered for the rest of a run
//   - DNS caching for the many requests a dependency tree produces
//
// # Errors
//
// A 404 maps to [ErrNotFound], which callers use to tell "does not exist"
// from a failed query. Other failures wrap [ErrNetwork], or [ErrUpstreamDown]
// once a host's breaker is open.
//
// [npm]: github.com/mifi/commonify/pkg/integrations/npm
// [cache.Cache]: github.com/mifi/commonify/pkg/cache.Cache
package integrations
