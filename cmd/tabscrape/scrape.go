package main

import (
	"fmt"

	"github.com/leofalp/tabscrape/providers/web/cleaner"
	"github.com/leofalp/tabscrape/providers/web/webfetch"
	"github.com/spf13/cobra"
)

func scrapeCmd(a *app) *cobra.Command {
	var cleanerMode string

	cmd := &cobra.Command{
		Use:   "scrape URL",
		Short: "Load a page and extract its records",
		Long: `Loads URL, strips scripts, styles and markup, sends the visible text to
the text-generation service and saves the resulting table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("cleaner") {
				a.cfg.Fetch.Cleaner = cleanerMode
			}
			mode, err := cleaner.ParseMode(a.cfg.Fetch.Cleaner)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			fetcher := webfetch.New(
				webfetch.WithTimeout(a.cfg.Fetch.Timeout),
				webfetch.WithUserAgent(a.cfg.Fetch.UserAgent),
				webfetch.WithObserver(a.observer),
			)
			page, err := fetcher.Fetch(ctx, webfetch.Input{URL: args[0]})
			if err != nil {
				return err
			}

			text, err := cleaner.New(cleaner.WithMode(mode), cleaner.WithBaseURL(page.URL)).Clean(page.HTML)
			if err != nil {
				return fmt.Errorf("clean %s: %w", page.URL, err)
			}

			requester, err := a.requester()
			if err != nil {
				return err
			}
			result, err := a.pipeline(requester).Run(ctx, text)
			if err != nil {
				return err
			}
			return a.finish(cmd, result, page.URL)
		},
	}

	cmd.Flags().StringVar(&cleanerMode, "cleaner", "", "markup cleaning: text, markdown or readability")
	return cmd
}
