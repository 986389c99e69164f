package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mifi/commonify/pkg/archive"
	"github.com/mifi/commonify/pkg/buildinfo"
	"github.com/mifi/commonify/pkg/cache"
	"github.com/mifi/commonify/pkg/commonify"
	"github.com/mifi/commonify/pkg/errors"
	"github.com/mifi/commonify/pkg/integrations"
	"github.com/mifi/commonify/pkg/integrations/npm"
	"github.com/mifi/commonify/pkg/observability"
	"github.com/mifi/commonify/pkg/report"
	"github.com/mifi/commonify/pkg/session"
	"github.com/mifi/commonify/pkg/transform"
)

// runOptions holds flag values for the root command. Zero values leave the
// configuration untouched.
type runOptions struct {
	configPath string
	registry   string
	maxDepth   int
	workDir    string
	access     string
	noCache    bool
	refresh    bool
	noHistory  bool
	graph      string
	detailed   bool
}

// commonifyCommand creates the command that converts a package tree.
func (c *CLI) commonifyCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "commonify <package> <version> <scope> [ignore,list]",
		Short: "Republish ES module npm packages as CommonJS under your own scope",
		Long: `Commonify converts an ES module npm package, and every ES module package it
depends on, to CommonJS and prepares each for publishing as @<scope>/<name>.

Dependencies that already have a converted counterpart in the registry are
reused. Dependencies in the ignore list, and dependencies that are not ES
modules, are kept as they are.

Nothing is published. On success the npm publish commands for all converted
packages are printed to stdout, dependencies first.`,
		Example: `  # Convert left-pad 1.3.0 and its dependencies to @acme/*
  commonify left-pad 1.3.0 acme

  # Resolve a range, keep react untouched, then publish
  commonify my-lib ^2.0.0 acme react,react-dom | sh`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args) > 4 {
				return errors.New(errors.ErrCodeInvalidInput, "expected <package> <version> <scope> [ignore,list], got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var ignore string
			if len(args) == 4 {
				ignore = args[3]
			}
			return c.runCommonify(cmd.Context(), commonify.Coordinate{Name: args[0], Version: args[1]}, args[2], parseIgnore(ignore), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/commonify/config.toml)")
	f.StringVar(&opts.registry, "registry", "", "npm registry URL")
	f.IntVar(&opts.maxDepth, "max-depth", 0, fmt.Sprintf("maximum dependency depth to convert (default %d)", commonify.DefaultMaxDepth))
	f.StringVar(&opts.workDir, "work-dir", "", "directory for downloaded and converted packages (default .)")
	f.StringVar(&opts.access, "access", "", "npm publish access level (default public)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the registry response cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached registry responses")
	f.BoolVar(&opts.noHistory, "no-history", false, "do not record this run in the history")
	f.StringVar(&opts.graph, "graph", "", "write the converted dependency graph to a .svg or .dot file")
	f.BoolVar(&opts.detailed, "detailed", false, "include source versions and depth in the graph")

	return cmd
}

// parseIgnore splits a comma-separated ignore list.
func parseIgnore(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (opts runOptions) apply(cfg Config) Config {
	if opts.registry != "" {
		cfg.Registry = opts.registry
	}
	if opts.maxDepth > 0 {
		cfg.MaxDepth = opts.maxDepth
	}
	if opts.workDir != "" {
		cfg.WorkDir = opts.workDir
	}
	if opts.access != "" {
		cfg.Access = opts.access
	}
	if opts.noHistory {
		cfg.History.Disabled = true
	}
	return cfg
}

func (c *CLI) runCommonify(ctx context.Context, root commonify.Coordinate, scope string, ignore []string, opts runOptions) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	cfg = opts.apply(cfg)

	ttl, err := cfg.CacheTTL()
	if err != nil {
		return err
	}
	store, err := newCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	client := integrations.NewClient(store, ttl, map[string]string{
		"Accept":     "application/json",
		"User-Agent": buildinfo.UserAgent(),
	})
	com := commonify.New(
		npm.NewClient(client, npm.WithBaseURL(cfg.Registry), npm.WithRefresh(opts.refresh)),
		archive.NewFetcher(client, cfg.WorkDir, logger),
		transform.NewBabel(cfg.TransformCommand, logger),
		commonify.WithLogger(logger),
		commonify.WithMaxDepth(cfg.MaxDepth),
		commonify.WithAccess(cfg.Access),
	)

	stats := &observability.Stats{}
	stats.Register()
	defer observability.Reset()

	prog := newProgress(logger)
	s, err := com.Run(ctx, root, scope, ignore)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d package(s)", len(s.Actions())), "root", s.Root)
	logger.Debug("registry",
		"requests", stats.Requests.Load(),
		"cache_hits", stats.CacheHits.Load(),
		"cache_misses", stats.CacheMisses.Load(),
		"resolved", stats.Resolved.Load(),
		"breakers", client.BreakerStates())

	c.printPublish(s)

	run := session.FromSession(s, cfg.Registry)
	if opts.graph != "" {
		if err := writeGraph(ctx, run, opts.graph, report.Options{Detailed: opts.detailed}); err != nil {
			return err
		}
		printFile(c.stderr, opts.graph)
	}

	if !cfg.History.Disabled {
		if err := saveRun(ctx, cfg, run); err != nil {
			logger.Warn("could not record run", "err", err)
		} else {
			logger.Debug("recorded run", "id", run.ID)
		}
	}
	return nil
}

// printPublish writes the header to stderr and the publish commands to
// stdout.
func (c *CLI) printPublish(s *commonify.Session) {
	if s.Result == nil {
		printWarning(c.stderr, "%s is not an ES module package, nothing to publish", s.Root)
		return
	}
	fmt.Fprintln(c.stderr, StyleTitle.Render("Now you can publish package(s):"))
	for _, a := range s.Actions() {
		fmt.Fprintln(c.stdout, a.String())
	}
}

// writeGraph renders run as SVG or, for any other extension, DOT source.
func writeGraph(ctx context.Context, run *session.Run, path string, opts report.Options) error {
	data := []byte(report.ToDOT(run, opts))
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		svg, err := report.RenderSVG(ctx, string(data))
		if err != nil {
			return err
		}
		data = svg
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// newCache selects the registry response cache: none, Redis or files.
func newCache(ctx context.Context, cfg Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL, appName+":")
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
