package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
	"github.com/nao1215/intelscan/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over an HTTP JSON API",
		Long: `Serve exposes every pipeline operation as an HTTP JSON endpoint.

Endpoints:
  GET    /health
  POST   /api/plan          {"goal": "..."}
  POST   /api/fetch         {"urls": [...]}
  POST   /api/crawl         {"urls": [...], "limit": 5}
  POST   /api/synthesize    {"goal": "...", "pages": [...]}
  POST   /api/citations     {"report": "...", "pages": [...]}
  POST   /api/analyze       {"goal": "...", "urls": [...], "mode": "scrape"}
  POST   /api/ask           {"markdown": "...", "question": "..."}
  GET    /api/analyses
  GET    /api/analyses/{id}
  DELETE /api/analyses/{id}
  GET    /api/analyses/{id}/export?format=md

The server listens on 127.0.0.1:8080 by default. Requests under /api are
rate limited per process.

Examples:
  # Serve on the default address
  intelscan serve

  # Serve on all interfaces with JSON logs
  intelscan serve --listen :9000 --log-json`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("listen", config.DefaultListenAddress, "Address to listen on")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")
	cmd.Flags().Int("crawl-limit", config.DefaultCrawlLimit, crawlLimitFlagUsage)
	cmd.Flags().Bool("no-save", false, "Do not record analyses in the history database")
	cmd.Flags().StringP("language", "l", config.DefaultLanguage,
		"Report language as a BCP 47 tag (e.g. en, ja, pt-BR)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy for outbound requests (host:port)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// The server starts without credentials; the endpoints that need
	// them report a configuration error.
	for _, check := range []func() error{a.cfg.RequireScrape, a.cfg.RequireLLM} {
		if err := check(); err != nil {
			a.logger.Warn("service not configured", "error", err)
		}
	}

	opts := []server.Option{
		server.WithAnswerer(a.synthesizer),
		server.WithLogger(a.logger),
		server.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst),
		server.WithVersion(getVersion()),
	}
	if a.db != nil {
		opts = append(opts, server.WithStore(a.db))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "intelscan API listening on http://%s\n", a.cfg.ListenAddress)
	return server.New(a.controller, opts...).Start(cmd.Context(), a.cfg.ListenAddress)
}
