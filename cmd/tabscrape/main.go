// Command tabscrape turns web pages and text into tables with a
// text-generation service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
