package main

import (
	"github.com/spf13/cobra"
)

// options holds the global flags. Flags left unset do not override the
// loaded configuration.
type options struct {
	configPath string
	provider   string
	model      string
	baseURL    string
	mode       string
	policy     string
	maxChunk   int
	retries    int
	csv        string
	json       string
	xlsx       string
	sqlite     string
	quiet      bool
	verbose    bool
}

// RootCmd builds the tabscrape command tree.
func RootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tabscrape",
		Short: "Extract tabular data from web pages with a language model",
		Long: `tabscrape loads a page (or reads text), asks a text-generation service
to return the records it contains as JSON, repairs and normalizes that
JSON into a table and saves it as CSV, JSON, XLSX or into a SQLite history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.configPath, "config", "", "path to a YAML config file (default tabscrape.yaml when present)")
	f.StringVar(&a.opts.provider, "provider", "", "service provider: ollama or openai")
	f.StringVar(&a.opts.model, "model", "", "model name")
	f.StringVar(&a.opts.baseURL, "base-url", "", "service endpoint root")
	f.StringVar(&a.opts.mode, "mode", "", "chunk dispatch: joined or per_chunk")
	f.StringVar(&a.opts.policy, "policy", "", "JSON repair policy: conservative, default or lenient")
	f.IntVar(&a.opts.maxChunk, "max-chunk", 0, "maximum chunk length in characters")
	f.IntVar(&a.opts.retries, "retries", 0, "retry transient service failures this many times")
	f.StringVar(&a.opts.csv, "csv", "", "CSV output path (empty string disables)")
	f.StringVar(&a.opts.json, "json", "", "JSON output path (empty string disables)")
	f.StringVar(&a.opts.xlsx, "xlsx", "", "XLSX output path")
	f.StringVar(&a.opts.sqlite, "sqlite", "", "SQLite run history path")
	f.BoolVarP(&a.opts.quiet, "quiet", "q", false, "only print warnings and errors, no table preview")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "debug logging, including service requests")
	root.MarkFlagsMutuallyExclusive("quiet", "verbose")

	root.AddCommand(
		scrapeCmd(a),
		extractCmd(a),
		parseCmd(a),
		historyCmd(a),
	)
	return root
}
