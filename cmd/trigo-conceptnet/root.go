package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/config"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/datasource"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/storage"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Endpoint   string
	BaseURI    string
	Languages  []string
	StorePath  string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "trigo-conceptnet",
		Short:         "Quad pattern access to ConceptNet",
		Long:          "Answers RDF quad pattern queries from a ConceptNet endpoint, with cached total counts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.Endpoint, "endpoint", "", "ConceptNet query endpoint")
	flags.StringVar(&opts.BaseURI, "base-uri", "", "base URI of ConceptNet identifiers")
	flags.StringArrayVar(&opts.Languages, "language", nil, "only keep edges in this language (repeatable)")
	flags.StringVar(&opts.StorePath, "store", "", "directory for persisted counts")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newQueryCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// loadConfig reads the config file and applies the flags the user set.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = o.Endpoint
	}
	if flags.Changed("base-uri") {
		cfg.BaseURI = o.BaseURI
	}
	if flags.Changed("language") {
		cfg.Languages = o.Languages
	}
	if flags.Changed("store") {
		cfg.Store.Path = o.StorePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// app bundles the datasource with the resources it owns.
type app struct {
	datasource *datasource.Datasource
	registry   *prometheus.Registry
	counts     *store.CountStore
	logger     *slog.Logger
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var counts *store.CountStore
	if cfg.Store.Path != "" {
		logger.Info("opening count store", "path", cfg.Store.Path)
		badgerStorage, err := storage.NewBadgerStorage(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open count store: %w", err)
		}
		counts = store.NewCountStore(badgerStorage, cfg.Count.CacheTTL)
	}

	opts := cfg.DatasourceOptions()
	opts.CountStore = counts
	opts.Logger = logger
	opts.Metrics = m

	return &app{
		datasource: datasource.New(opts),
		registry:   registry,
		counts:     counts,
		logger:     logger,
	}, nil
}

func (a *app) Close() {
	if a.counts == nil {
		return
	}
	if err := a.counts.Close(); err != nil {
		a.logger.Error("error closing count store", "error", err)
	}
}
