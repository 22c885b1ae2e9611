package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-recommender/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing:

  GET  /health           liveness
  GET  /scrapers         supported sites
  POST /recommendations  rank postings sent in the body
  POST /runs/stream      full run, progress streamed as server-sent events
  GET  /runs/{id}        a persisted run (requires a database)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, database, cleanup, err := newRunner(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer cleanup()

	srvCfg := server.Config{
		Addr:        cfg.Server.Addr,
		Registry:    r.registry,
		Preferences: cfg.Preferences,
		Recommend:   recommendOptions(cfg),
		Runner:      r.Run,
		RateLimit:   rateLimitConfig(cfg),
	}
	if database != nil {
		srvCfg.Runs = database
	}

	return server.New(srvCfg).Start(ctx)
}
