package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/model"
)

// DefaultMaxBodySize limits request bodies. Synthesis requests carry the
// full Markdown of every page, so the limit is generous.
const DefaultMaxBodySize = 32 * 1024 * 1024

// shutdownTimeout bounds the graceful shutdown started by Start.
const shutdownTimeout = 10 * time.Second

// Pipeline is the set of pipeline entry points served by the API.
// *pipeline.Controller implements it.
type Pipeline interface {
	PlanGoal(ctx context.Context, goal string) (model.Plan, error)
	FetchPages(ctx context.Context, urls []string) ([]model.PageRecord, error)
	Crawl(ctx context.Context, seeds []string, limitPerSite int) ([]model.CrawlGroup, error)
	SynthesizeReport(ctx context.Context, goal string, pages []model.PageRecord) (string, error)
	ResolveCitations(rawReport string, pages []model.PageRecord) (model.SynthesizedReport, error)
	Auto(ctx context.Context, goal string) (*model.Analysis, error)
	Manual(ctx context.Context, urls []string, mode model.FetchMode, goal string) (*model.Analysis, error)
}

// Answerer answers questions about fetched Markdown.
type Answerer interface {
	Answer(ctx context.Context, markdown, question string) (string, error)
}

// Store is the read side of the analysis history.
type Store interface {
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]database.AnalysisSummary, error)
	DeleteAnalysis(ctx context.Context, id string) error
}

// ErrUnavailable is returned by endpoints whose dependency is not configured.
var ErrUnavailable = errors.New("not available in this server configuration")

// Server serves the HTTP API. It holds only immutable dependencies and is
// safe for concurrent use.
type Server struct {
	pipeline Pipeline
	answerer Answerer
	store    Store
	logger   *slog.Logger
	limiter  *rate.Limiter
	version  string
	maxBody  int64
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the history endpoints.
func WithStore(store Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithAnswerer enables the ask endpoint.
func WithAnswerer(answerer Answerer) Option {
	return func(s *Server) {
		s.answerer = answerer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit limits the API to perSecond requests per second with the
// given burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithVersion sets the version reported by /health and embedded in exports.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithMaxBodySize sets the request body limit in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a Server for p.
func New(p Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		logger:   slog.Default(),
		version:  "dev",
		maxBody:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Post("/plan", s.plan)
		r.Post("/fetch", s.fetch)
		r.Post("/crawl", s.crawl)
		r.Post("/synthesize", s.synthesize)
		r.Post("/citations", s.citations)
		r.Post("/analyze", s.analyze)
		r.Post("/ask", s.ask)

		r.Get("/analyses", s.listAnalyses)
		r.Get("/analyses/{id}", s.getAnalysis)
		r.Delete("/analyses/{id}", s.deleteAnalysis)
		r.Get("/analyses/{id}/export", s.exportAnalysis)
	})

	return r
}

// Start serves the API on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("server listening", "address", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
