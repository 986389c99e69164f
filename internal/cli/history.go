package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mifi/commonify/pkg/session"
)

// historyCommand creates the run history command.
func (c *CLI) historyCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous successful runs",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/commonify/config.toml)")

	cmd.AddCommand(c.historyListCommand(&configPath))
	cmd.AddCommand(c.historyShowCommand(&configPath))

	return cmd
}

// historyListCommand creates the "history list" subcommand.
func (c *CLI) historyListCommand(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openHistory(ctx, *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo(c.stderr, "No runs recorded")
				if fs, ok := store.(*session.FileStore); ok {
					printDetail(c.stderr, "Directory: %s", fs.Path())
				}
				return nil
			}
			for _, run := range runs {
				result := "nothing converted"
				if run.Result != nil {
					result = run.Result.String()
				}
				fmt.Fprintf(c.stdout, "%s  %s  %s -> %s  (%d package(s))\n",
					run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Root, result, len(run.Actions))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

// historyShowCommand creates the "history show" subcommand. The publish
// commands go to stdout so a recorded run can be replayed with "| sh".
func (c *CLI) historyShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run and its publish commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openHistory(ctx, *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}

			printKeyValue(c.stderr, "Run", run.ID)
			printKeyValue(c.stderr, "Package", run.Root.String())
			printKeyValue(c.stderr, "Scope", "@"+run.Scope)
			if run.Registry != "" {
				printKeyValue(c.stderr, "Registry", run.Registry)
			}
			printKeyValue(c.stderr, "Created", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			for _, p := range run.Packages {
				printDetail(c.stderr, "%s -> %s", p.Source, p.Result)
			}
			for _, a := range run.Actions {
				fmt.Fprintln(c.stdout, a.String())
			}
			return nil
		},
	}
}

// openHistory opens the configured run history store.
func openHistory(ctx context.Context, configPath string) (session.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newHistory(ctx, cfg)
}

func newHistory(ctx context.Context, cfg Config) (session.Store, error) {
	if cfg.History.MongoURI != "" {
		return session.NewMongoStore(ctx, cfg.History.MongoURI, cfg.History.MongoDatabase)
	}
	return session.NewFileStore(cfg.History.Dir)
}

func saveRun(ctx context.Context, cfg Config, run *session.Run) error {
	store, err := newHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, run)
}
