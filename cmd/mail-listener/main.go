// Command mail-listener polls the configured mailbox, processes new supplier
// documents and optionally writes their review workbooks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"supplydesk/internal/app"
	"supplydesk/internal/config"
)

func main() {
	cfg, err := config.Load()
	must(err)

	a, err := app.Open(cfg, app.NewLogger(cfg, os.Stderr))
	must(err)
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.ServeMetrics(ctx)
	svc, err := a.Listener(ctx)
	must(err)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
