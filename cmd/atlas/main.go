package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/atlas/internal/artifact"
	"github.com/everstacklabs/atlas/internal/cache"
	"github.com/everstacklabs/atlas/internal/catalog"
	"github.com/everstacklabs/atlas/internal/config"
	"github.com/everstacklabs/atlas/internal/httpclient"
	"github.com/everstacklabs/atlas/internal/pipeline"
	"github.com/everstacklabs/atlas/internal/source"
	"github.com/everstacklabs/atlas/internal/store"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "atlas",
		Short: "Layered model catalog builder",
		Long:  "Assembles provider and model metadata from layered sources into a validated, versioned catalog snapshot.",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		buildCmd(),
		validateCmd(),
		exportCmd(),
		listCmd(),
		showCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline and print a snapshot summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := runBuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("epoch %d: %d providers, %d models (generated %s)\n",
				snap.Epoch, len(snap.Providers), len(snap.Models), snap.GeneratedAt.Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the pipeline without publishing, reporting any errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := loadOptions(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := pipeline.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("catalog valid: %d providers, %d models\n", len(snap.Providers), len(snap.Models))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Build and write the catalog artifact (manifest + per-provider files)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, err := loadOptions(cmd.Context())
			if err != nil {
				return err
			}
			st := store.New()
			snap, err := st.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := artifact.Export(snap, cfg.ExportPath); err != nil {
				return fmt.Errorf("exporting catalog: %w", err)
			}
			slog.Info("catalog exported", "path", cfg.ExportPath, "epoch", snap.Epoch)

			if cfg.GitCommit {
				ops, err := artifact.OpenRepo(cfg.ExportPath, cfg.GitHub.Token)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("chore(catalog): export epoch %d", snap.Epoch)
				committed, err := ops.CommitExport(msg)
				if err != nil {
					return err
				}
				if !committed {
					slog.Info("export unchanged, nothing to commit")
					return nil
				}
				slog.Info("export committed", "message", msg)
				if cfg.GitPush {
					if err := ops.Push(); err != nil {
						return fmt.Errorf("pushing: %w", err)
					}
					slog.Info("export pushed")
				}
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers, or a provider's models",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, snap, err := runBuild(cmd.Context())
			if err != nil {
				return err
			}
			provider, _ := cmd.Flags().GetString("provider")
			if provider == "" {
				for _, p := range st.ListProviders() {
					fmt.Printf("%s\t%s\t%d models\n", p.ID, p.DisplayName, len(snap.ModelsFor(p.ID)))
				}
				return nil
			}
			for _, m := range st.ListModels(provider) {
				fmt.Printf("%s\t%s\n", m.ID, m.EffectiveStatus(snap.GeneratedAt))
			}
			return nil
		},
	}
	cmd.Flags().String("provider", "", "list models for one provider")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show provider:model",
		Short: "Print one model as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseSpec(args[0])
			if err != nil {
				return err
			}
			st, _, err := runBuild(cmd.Context())
			if err != nil {
				return err
			}
			m, err := st.GetModel(key.Provider, key.ID)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(m.Record())
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func runBuild(ctx context.Context) (*store.Store, *catalog.Snapshot, error) {
	_, opts, err := loadOptions(ctx)
	if err != nil {
		return nil, nil, err
	}
	st := store.New()
	snap, err := st.Build(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return st, snap, nil
}

func loadOptions(ctx context.Context) (*config.Config, pipeline.Options, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	setupLogging(cfg.LogLevel)

	spec, err := cfg.PolicySpec()
	if err != nil {
		return nil, pipeline.Options{}, err
	}

	sources, err := assembleSources(ctx, cfg)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	if len(sources) == 0 {
		return nil, pipeline.Options{}, fmt.Errorf("no sources configured")
	}

	return cfg, pipeline.Options{Sources: sources, Policy: spec, Prefer: cfg.Prefer}, nil
}

// assembleSources builds the precedence-ordered source list: the packaged
// catalog tree, then any GitHub or remote catalogs, then local override
// documents (highest precedence).
func assembleSources(ctx context.Context, cfg *config.Config) ([]source.Source, error) {
	var sources []source.Source

	if cfg.CatalogPath != "" {
		sources = append(sources, source.NewDir(cfg.CatalogPath))
	}

	if cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
		sources = append(sources, source.NewGitHub(ctx,
			cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Ref, cfg.GitHub.Path, cfg.GitHub.Token))
	}

	if len(cfg.Remotes) > 0 {
		fc, err := cache.New(cfg.CacheDir, cfg.ParsedCacheTTL())
		if err != nil {
			return nil, err
		}
		for _, rc := range cfg.Remotes {
			opts := []httpclient.Option{httpclient.WithCache(fc)}
			if rc.RPS > 0 {
				opts = append(opts, httpclient.WithRateLimit(rc.RPS))
			}
			sources = append(sources, source.NewRemote(rc.Name, rc.URL, httpclient.New(opts...)))
		}
	}

	for _, path := range cfg.Overrides {
		sources = append(sources, source.NewFile(path))
	}
	return sources, nil
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
