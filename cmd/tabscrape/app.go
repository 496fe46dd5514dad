package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leofalp/tabscrape/core/chunk"
	"github.com/leofalp/tabscrape/core/client"
	"github.com/leofalp/tabscrape/core/client/middleware"
	"github.com/leofalp/tabscrape/core/extract"
	"github.com/leofalp/tabscrape/core/parse"
	"github.com/leofalp/tabscrape/core/pipeline"
	"github.com/leofalp/tabscrape/core/table"
	"github.com/leofalp/tabscrape/internal/config"
	"github.com/leofalp/tabscrape/internal/display"
	"github.com/leofalp/tabscrape/providers/ai"
	"github.com/leofalp/tabscrape/providers/ai/ollama"
	"github.com/leofalp/tabscrape/providers/ai/openai"
	"github.com/leofalp/tabscrape/providers/observability"
	"github.com/leofalp/tabscrape/providers/observability/slogobs"
	"github.com/leofalp/tabscrape/providers/sink"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	opts     options
	cfg      *config.Config
	observer *slogobs.Observer

	// newProvider is replaced in tests.
	newProvider func(cfg *config.Config) (ai.Provider, error)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	switch {
	case a.opts.quiet:
		level = slog.LevelWarn
	case a.opts.verbose:
		level = slog.LevelDebug
	}
	a.observer = slogobs.New(
		slogobs.WithLevel(level),
		slogobs.WithOutput(cmd.ErrOrStderr()),
	)
	if a.newProvider == nil {
		a.newProvider = buildProvider
	}
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("provider") {
		cfg.Provider = a.opts.provider
	}
	if changed("model") {
		cfg.Model = a.opts.model
	} else if changed("provider") && cfg.Provider == config.ProviderOpenAI && cfg.Model == ollama.DefaultModel {
		cfg.Model = openai.DefaultModel
	}
	if changed("base-url") {
		cfg.BaseURL = a.opts.baseURL
	}
	if changed("mode") {
		cfg.Chunk.Mode = a.opts.mode
	}
	if changed("policy") {
		cfg.Parse.Policy = a.opts.policy
	}
	if changed("max-chunk") {
		cfg.Chunk.MaxLength = a.opts.maxChunk
	}
	if changed("retries") {
		cfg.Request.Retries = a.opts.retries
	}
	if changed("csv") {
		cfg.Output.CSV = a.opts.csv
	}
	if changed("json") {
		cfg.Output.JSON = a.opts.json
	}
	if changed("xlsx") {
		cfg.Output.XLSX = a.opts.xlsx
	}
	if changed("sqlite") {
		cfg.Output.SQLite = a.opts.sqlite
	}
}

func buildProvider(cfg *config.Config) (ai.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		p := openai.New()
		if key := cfg.APIKey(); key != "" {
			p = p.WithAPIKey(key)
		}
		if cfg.BaseURL != "" {
			p = p.WithBaseURL(cfg.BaseURL)
		}
		return p, nil
	case config.ProviderOllama:
		p := ollama.New()
		if cfg.BaseURL != "" {
			p = p.WithBaseURL(cfg.BaseURL)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// requester wires provider, middleware chain and prompt into an extraction requester.
func (a *app) requester() (*extract.Requester, error) {
	provider, err := a.newProvider(a.cfg)
	if err != nil {
		return nil, err
	}

	var middlewares []client.MiddlewareConfig
	if a.opts.verbose {
		middlewares = append(middlewares, middleware.NewLoggingMiddleware(a.observer.Logger(), middleware.LogLevelStandard))
	}
	if a.cfg.Request.Retries > 0 {
		middlewares = append(middlewares, middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: a.cfg.Request.Retries}))
	}
	if a.cfg.Request.Timeout > 0 {
		middlewares = append(middlewares, middleware.NewTimeoutMiddleware(a.cfg.Request.Timeout))
	}

	c, err := client.New(provider,
		client.WithDefaultModel(a.cfg.Model),
		client.WithObserver(a.observer),
		client.WithMiddleware(middlewares...),
	)
	if err != nil {
		return nil, err
	}
	return extract.New(c)
}

// pipeline builds a Pipeline from the configuration. requester may be nil
// for offline parsing.
func (a *app) pipeline(requester pipeline.Requester) *pipeline.Pipeline {
	mode, _ := pipeline.ParseMode(a.cfg.Chunk.Mode)
	policy, _ := parse.PolicyByName(a.cfg.Parse.Policy)
	return pipeline.New(requester,
		pipeline.WithChunker(chunk.New(chunk.WithMaxLength(a.cfg.Chunk.MaxLength))),
		pipeline.WithMode(mode),
		pipeline.WithPolicy(policy),
		pipeline.WithTableOptions(
			table.WithRecordsKeys(a.cfg.Parse.RecordsKeys...),
			table.WithSentinel(a.cfg.Parse.Sentinel),
			table.WithKeepSign(a.cfg.Parse.KeepSign),
		),
		pipeline.WithObserver(a.observer),
	)
}

// save writes t to every configured output. source is recorded in the
// SQLite history.
func (a *app) save(ctx context.Context, t table.Table, source string) error {
	out := a.cfg.Output
	var sinks []sink.Sink
	if out.CSV != "" {
		sinks = append(sinks, sink.CSV(out.CSV))
	}
	if out.JSON != "" {
		sinks = append(sinks, sink.JSON(out.JSON))
	}
	if out.XLSX != "" {
		sinks = append(sinks, sink.XLSX(out.XLSX))
	}
	if out.SQLite != "" {
		db, err := sink.OpenSQLite(ctx, out.SQLite, sink.WithSource(source))
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}
	if len(sinks) == 0 {
		return nil
	}

	ctx = observability.ContextWithObserver(ctx, a.observer)
	return sink.Multi(sinks...).Write(ctx, t)
}

// finish saves the result and prints the preview.
func (a *app) finish(cmd *cobra.Command, result pipeline.Result, source string) error {
	ctx := cmd.Context()
	if result.Degraded() {
		a.observer.Warn(ctx, "no response could be parsed; saving an empty table",
			observability.String("source", source))
	}
	if err := a.save(ctx, result.Table, source); err != nil {
		return err
	}
	if a.opts.quiet {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, display.Preview(result.Table, display.DefaultPreviewRows, display.DefaultCellWidth))
	fmt.Fprintln(out, display.Summary(result.Table))
	return nil
}
