package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/report"
)

// defaultListLimit is the number of analyses returned by GET /api/analyses
// when no limit is given.
const defaultListLimit = 50

type goalRequest struct {
	Goal string `json:"goal"`
}

type urlsRequest struct {
	URLs  []string `json:"urls"`
	Limit int      `json:"limit,omitempty"`
}

type synthesizeRequest struct {
	Goal  string             `json:"goal"`
	Pages []model.PageRecord `json:"pages"`
}

type citationsRequest struct {
	Report string             `json:"report"`
	Pages  []model.PageRecord `json:"pages"`
}

type analyzeRequest struct {
	Goal string   `json:"goal"`
	URLs []string `json:"urls,omitempty"`
	Mode string   `json:"mode,omitempty"`
}

type askRequest struct {
	Markdown string `json:"markdown"`
	Question string `json:"question"`
}

type pagesResponse struct {
	Pages []model.PageRecord `json:"pages"`
}

type groupsResponse struct {
	Groups []model.CrawlGroup `json:"groups"`
}

type reportResponse struct {
	Report string `json:"report"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

type analysesResponse struct {
	Analyses []database.AnalysisSummary `json:"analyses"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.pipeline.PlanGoal(r.Context(), req.Goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, plan)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	var req urlsRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pages, err := s.pipeline.FetchPages(r.Context(), req.URLs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, pagesResponse{Pages: pages})
}

func (s *Server) crawl(w http.ResponseWriter, r *http.Request) {
	var req urlsRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := model.ValidateURLs(req.URLs); err != nil {
		s.writeError(w, r, err)
		return
	}
	groups, err := s.pipeline.Crawl(r.Context(), req.URLs, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, groupsResponse{Groups: groups})
}

func (s *Server) synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, err := s.pipeline.SynthesizeReport(r.Context(), req.Goal, req.Pages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, reportResponse{Report: raw})
}

func (s *Server) citations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resolved, err := s.pipeline.ResolveCitations(req.Report, req.Pages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, resolved)
}

// analyze runs a full analysis: goal-driven when no URLs are given,
// URL-driven otherwise.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		analysis *model.Analysis
		err      error
	)
	if len(req.URLs) == 0 {
		analysis, err = s.pipeline.Auto(r.Context(), req.Goal)
	} else {
		mode := req.Mode
		if mode == "" {
			mode = string(model.ModeScrape)
		}
		analysis, err = s.pipeline.Manual(r.Context(), req.URLs, model.FetchMode(mode), req.Goal)
	}
	if err != nil {
		id := ""
		if analysis != nil {
			id = analysis.ID
		}
		s.writeAnalysisError(w, r, err, id)
		return
	}
	writeJSON(w, analysis)
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		s.writeError(w, r, fmt.Errorf("ask: %w", ErrUnavailable))
		return
	}
	var req askRequest
	if err := s.decodeJSON(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	answer, err := s.answerer.Answer(r.Context(), req.Markdown, req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, answerResponse{Answer: answer})
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, fmt.Errorf("history: %w", ErrUnavailable))
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, &model.ValidationError{Field: "limit", Value: v, Reason: "must be a positive integer"})
			return
		}
		limit = n
	}
	summaries, err := s.store.ListAnalyses(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []database.AnalysisSummary{}
	}
	writeJSON(w, analysesResponse{Analyses: summaries})
}

// loadAnalysis returns the analysis named by the {id} URL parameter,
// writing the error response itself when it cannot.
func (s *Server) loadAnalysis(w http.ResponseWriter, r *http.Request) (*model.Analysis, bool) {
	if s.store == nil {
		s.writeError(w, r, fmt.Errorf("history: %w", ErrUnavailable))
		return nil, false
	}
	analysis, err := s.store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return analysis, true
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	writeJSON(w, analysis)
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, fmt.Errorf("history: %w", ErrUnavailable))
		return
	}
	if err := s.store.DeleteAnalysis(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportAnalysis writes a stored analysis in the format named by the
// format query parameter (md, json, html or text; md by default).
func (s *Server) exportAnalysis(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = report.FormatMarkdown
	}

	var buf strings.Builder
	writer, err := report.NewWriter(format, &buf, s.version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	analysis, ok := s.loadAnalysis(w, r)
	if !ok {
		return
	}
	if _, err := writer.Write(analysis); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to export analysis: %w", err))
		return
	}

	filename := "intelscan-" + analysis.ID + report.FileExtension(format)
	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(buf.String())) //nolint:errcheck // client gone
}
