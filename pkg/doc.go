// Package pkg provides the libraries behind commonify.
//
// # Overview
//
// Commonify republishes ES module npm packages as CommonJS under a scope the
// caller owns. The pkg directory is organized into these areas:
//
//  1. [commonify] - Recursive resolution and the publish queue
//  2. [manifest], [semver] - package.json handling and version arithmetic
//  3. [archive], [transform] - Tarball extraction and the babel step
//  4. [integrations] - Registry clients with caching, retries and breakers
//  5. [cache], [session] - Response caching and run history
//  6. [report] - Graphviz output for a finished run
//
// # Architecture
//
// The data flow for one package:
//
//	npm registry
//	     ↓
//	[integrations/npm] package (resolve version, check for a converted copy)
//	     ↓
//	[archive] package (download + extract tarball)
//	     ↓
//	[commonify] package (convert dependencies first, rewrite package.json)
//	     ↓
//	[transform] package (babel, ES modules to CommonJS)
//	     ↓
//	npm publish commands, dependencies first
//
// [commonify]: github.com/mifi/commonify/pkg/commonify
// [manifest]: github.com/mifi/commonify/pkg/manifest
// [semver]: github.com/mifi/commonify/pkg/semver
// [archive]: github.com/mifi/commonify/pkg/archive
// [transform]: github.com/mifi/commonify/pkg/transform
// [integrations]: github.com/mifi/commonify/pkg/integrations
// [integrations/npm]: github.com/mifi/commonify/pkg/integrations/npm
// [cache]: github.com/mifi/commonify/pkg/cache
// [session]: github.com/mifi/commonify/pkg/session
// [report]: github.com/mifi/commonify/pkg/report
package pkg
