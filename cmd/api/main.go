package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spec-kit/complaint-analytics/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rt := &bootstrap{}
	defer rt.Close()

	app := &cli.App{
		Analytics: func(ctx context.Context) (cli.AnalyticsService, error) {
			if err := rt.setup(ctx); err != nil {
				return nil, err
			}
			return rt.analytics, nil
		},
		Serve: rt.serve,
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
