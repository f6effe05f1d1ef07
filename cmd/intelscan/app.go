package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/intelscan/internal/config"
	"github.com/nao1215/intelscan/internal/crawler"
	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/llm"
	intellog "github.com/nao1215/intelscan/internal/log"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/pipeline"
	"github.com/nao1215/intelscan/internal/planner"
	"github.com/nao1215/intelscan/internal/prompt"
	"github.com/nao1215/intelscan/internal/report"
	"github.com/nao1215/intelscan/internal/scrape"
	"github.com/nao1215/intelscan/internal/synth"
	"github.com/nao1215/intelscan/internal/transport"
)

// crawlLimitFlagUsage documents the --crawl-limit flag.
const crawlLimitFlagUsage = "Maximum same-site links followed per seed URL in crawl mode"

// scrapeClientSlack is added to the scrape timeout for the HTTP client so
// that the service can report its own timeout before the connection drops.
const scrapeClientSlack = 15 * time.Second

// app holds the components shared by the pipeline commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	db          *database.AnalysisDB
	fetcher     *scrape.Client
	synthesizer *synth.Synthesizer
	controller  *pipeline.Controller
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig resolves the configuration from the config file, the
// environment and the flags of cmd, in increasing order of precedence.
// Flags that cmd does not define are skipped.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	if flags.Changed("language") {
		if cfg.Language, err = flags.GetString("language"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("crawl-limit") {
		if cfg.CrawlLimit, err = flags.GetInt("crawl-limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("listen") {
		if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("no-save") != nil {
		noSave, err := flags.GetBool("no-save")
		if err != nil {
			return nil, err
		}
		if noSave {
			cfg.SaveToDB = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newApp builds the pipeline components from cmd's configuration.
// The database is opened when withStore is set and saving is enabled.
func newApp(cmd *cobra.Command, withStore bool) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := intellog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
		logger = intellog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	factory, err := transport.NewFactory(cfg.ProxyAddress,
		transport.WithUserAgent("intelscan/"+getVersion()+" (+https://github.com/nao1215/intelscan)"))
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	templates, err := prompt.Load(cfg.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	fetcher := scrape.New(cfg.ScrapeAPIURL, cfg.ScrapeAPIKey,
		scrape.WithHTTPClient(factory.NewHTTPClient(cfg.ScrapeTimeout+scrapeClientSlack)),
		scrape.WithRequestTimeout(cfg.ScrapeTimeout),
		scrape.WithLogger(logger),
	)

	provider := llm.NewChatClient(
		llm.Config{
			Endpoint: cfg.LLMEndpoint,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
		},
		llm.WithHTTPClient(factory.NewHTTPClient(cfg.LLMTimeout)),
		llm.WithLogger(logger),
	)
	logger.Debug("llm provider configured", "model", provider.Model())

	synthesizer := synth.New(provider,
		synth.WithTemplates(templates),
		synth.WithLanguage(cfg.Language),
		synth.WithLogger(logger),
	)

	a := &app{
		cfg:         cfg,
		logger:      logger,
		fetcher:     fetcher,
		synthesizer: synthesizer,
	}

	opts := []pipeline.ControllerOption{
		pipeline.WithCrawlLimit(cfg.CrawlLimit),
		pipeline.WithControllerLogger(logger),
	}
	if withStore && cfg.SaveToDB {
		a.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("database opened", "path", a.db.Path())
		opts = append(opts, pipeline.WithStore(a.db))
	}

	a.controller = pipeline.NewController(
		planner.New(provider, planner.WithTemplates(templates), planner.WithLogger(logger)),
		fetcher,
		crawler.NewExpander(fetcher, crawler.WithLogger(logger)),
		synthesizer,
		opts...,
	)
	return a, nil
}

// Close releases the database, if one was opened.
func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// addReportFlags registers the flags shared by commands that print an
// analysis.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", report.FormatText,
		"Report format: text, md, json or html")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false, "Do not record the analysis in the history database")
	cmd.Flags().StringP("language", "l", config.DefaultLanguage,
		"Report language as a BCP 47 tag (e.g. en, ja, pt-BR)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy for outbound requests (host:port)")
}

// reportFlags returns the format and output flags of cmd.
func reportFlags(cmd *cobra.Command) (format, output string, err error) {
	format, err = cmd.Flags().GetString("format")
	if err != nil {
		return "", "", err
	}
	output, err = cmd.Flags().GetString("output")
	if err != nil {
		return "", "", err
	}
	if _, err := report.NewWriter(format, io.Discard, ""); err != nil {
		return "", "", err
	}
	return format, output, nil
}

// writeAnalysis writes analysis to output, or to cmd's standard output
// when output is empty.
func writeAnalysis(cmd *cobra.Command, analysis *model.Analysis, format, output string) error {
	if output == "" {
		w, err := report.NewWriter(format, cmd.OutOrStdout(), getVersion())
		if err != nil {
			return err
		}
		_, err = w.Write(analysis)
		return err
	}

	dir := filepath.Dir(output)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may quote pages the user does not want world-readable.
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w, err := report.NewWriter(format, f, getVersion())
	if err != nil {
		return errors.Join(err, f.Close())
	}
	if _, err := w.Write(analysis); err != nil {
		return errors.Join(fmt.Errorf("failed to write report: %w", err), f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", output)
	return nil
}

// analysisFileName returns the file name used when several reports are
// written into one directory.
func analysisFileName(analysis *model.Analysis, format string) string {
	return "intelscan-" + analysis.ID + report.FileExtension(format)
}
