package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/intelscan/internal/database"
	"github.com/nao1215/intelscan/internal/model"
)

// fakePipeline records calls and returns canned results.
type fakePipeline struct {
	plan     model.Plan
	pages    []model.PageRecord
	groups   []model.CrawlGroup
	raw      string
	analysis *model.Analysis
	err      error

	gotLimit int
	gotMode  model.FetchMode
	gotGoal  string
}

func (f *fakePipeline) PlanGoal(_ context.Context, goal string) (model.Plan, error) {
	f.gotGoal = goal
	return f.plan, f.err
}

func (f *fakePipeline) FetchPages(_ context.Context, urls []string) ([]model.PageRecord, error) {
	if err := model.ValidateURLs(urls); err != nil {
		return nil, err
	}
	return f.pages, f.err
}

func (f *fakePipeline) Crawl(_ context.Context, _ []string, limit int) ([]model.CrawlGroup, error) {
	f.gotLimit = limit
	return f.groups, f.err
}

func (f *fakePipeline) SynthesizeReport(_ context.Context, goal string, _ []model.PageRecord) (string, error) {
	f.gotGoal = goal
	return f.raw, f.err
}

func (f *fakePipeline) ResolveCitations(raw string, pages []model.PageRecord) (model.SynthesizedReport, error) {
	return model.SynthesizedReport{Markdown: raw, SourceMap: map[int]string{1: pages[0].URL}}, nil
}

func (f *fakePipeline) Auto(_ context.Context, goal string) (*model.Analysis, error) {
	f.gotGoal = goal
	return f.analysis, f.err
}

func (f *fakePipeline) Manual(_ context.Context, _ []string, mode model.FetchMode, goal string) (*model.Analysis, error) {
	f.gotMode = mode
	f.gotGoal = goal
	return f.analysis, f.err
}

type fakeAnswerer struct{}

func (fakeAnswerer) Answer(_ context.Context, markdown, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &model.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	return "answer about " + markdown, nil
}

// do sends a request to the server's router and returns the recorder.
func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func setupTestDB(t *testing.T) *database.AnalysisDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, New(&fakePipeline{}, WithVersion("1.2.3")), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[map[string]string](t, rec)
	if got["status"] != "ok" || got["version"] != "1.2.3" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestPipelineEndpoints(t *testing.T) {
	t.Parallel()

	page := model.PageRecord{URL: "https://a.com/", Title: "A", RawMarkdown: "body"}

	t.Run("plan", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{plan: model.Plan{Mode: model.ModeCrawl, URLs: []string{"https://a.com/"}}}
		rec := do(t, New(fp), http.MethodPost, "/api/plan", `{"goal":"kafka"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if diff := cmp.Diff(fp.plan, decode[model.Plan](t, rec)); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
		if fp.gotGoal != "kafka" {
			t.Errorf("expected goal kafka, got %q", fp.gotGoal)
		}
	})

	t.Run("fetch", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{pages: []model.PageRecord{page}}
		rec := do(t, New(fp), http.MethodPost, "/api/fetch", `{"urls":["https://a.com/"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		got := decode[pagesResponse](t, rec)
		if diff := cmp.Diff([]model.PageRecord{page}, got.Pages); diff != "" {
			t.Errorf("pages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("crawl passes limit", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{groups: []model.CrawlGroup{{StartingURL: page.URL, Pages: []model.PageRecord{page}}}}
		rec := do(t, New(fp), http.MethodPost, "/api/crawl", `{"urls":["https://a.com/"],"limit":2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if fp.gotLimit != 2 {
			t.Errorf("expected limit 2, got %d", fp.gotLimit)
		}
		if got := decode[groupsResponse](t, rec); len(got.Groups) != 1 {
			t.Errorf("expected one group, got %d", len(got.Groups))
		}
	})

	t.Run("synthesize", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{raw: "Report [source 1]"}
		rec := do(t, New(fp), http.MethodPost, "/api/synthesize", `{"goal":"g","pages":[{"url":"https://a.com/","raw_markdown":"x"}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decode[reportResponse](t, rec); got.Report != "Report [source 1]" {
			t.Errorf("unexpected report %q", got.Report)
		}
	})

	t.Run("citations", func(t *testing.T) {
		t.Parallel()

		rec := do(t, New(&fakePipeline{}), http.MethodPost, "/api/citations", `{"report":"r","pages":[{"url":"https://a.com/"}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		got := decode[model.SynthesizedReport](t, rec)
		if got.SourceMap[1] != "https://a.com/" {
			t.Errorf("unexpected source map %v", got.SourceMap)
		}
	})

	t.Run("analyze auto", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{analysis: model.NewAutoAnalysis("g")}
		rec := do(t, New(fp), http.MethodPost, "/api/analyze", `{"goal":"g"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decode[model.Analysis](t, rec); got.ID != fp.analysis.ID {
			t.Errorf("expected analysis %s, got %s", fp.analysis.ID, got.ID)
		}
	})

	t.Run("analyze manual defaults to scrape", func(t *testing.T) {
		t.Parallel()

		fp := &fakePipeline{analysis: model.NewManualAnalysis([]string{"https://a.com/"}, model.ModeScrape, "")}
		rec := do(t, New(fp), http.MethodPost, "/api/analyze", `{"urls":["https://a.com/"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if fp.gotMode != model.ModeScrape {
			t.Errorf("expected scrape mode, got %q", fp.gotMode)
		}
	})

	t.Run("analyze failure carries analysis id", func(t *testing.T) {
		t.Parallel()

		a := model.NewAutoAnalysis("g")
		fp := &fakePipeline{analysis: a, err: &model.UpstreamError{Service: "llm", Op: "plan"}}
		rec := do(t, New(fp), http.MethodPost, "/api/analyze", `{"goal":"g"}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if got := decode[errorResponse](t, rec); got.AnalysisID != a.ID {
			t.Errorf("expected analysis id %s, got %q", a.ID, got.AnalysisID)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{name: "malformed body", body: `{"goal":`, want: http.StatusBadRequest},
		{name: "unknown field", body: `{"goals":"x"}`, want: http.StatusBadRequest},
		{name: "empty body", body: "", want: http.StatusBadRequest},
		{name: "validation", body: `{"goal":""}`, err: &model.ValidationError{Field: "goal", Reason: "must not be empty"}, want: http.StatusBadRequest},
		{name: "configuration", body: `{"goal":"g"}`, err: model.NewConfigurationError("LLM_API"), want: http.StatusInternalServerError},
		{name: "upstream", body: `{"goal":"g"}`, err: &model.UpstreamError{Service: "llm", Op: "plan", StatusCode: 503}, want: http.StatusBadGateway},
		{name: "deadline", body: `{"goal":"g"}`, err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "unexpected", body: `{"goal":"g"}`, err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, New(&fakePipeline{err: tt.err}), http.MethodPost, "/api/plan", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body)
			}
			if got := decode[errorResponse](t, rec); got.Error == "" {
				t.Error("expected error message")
			}
		})
	}

	t.Run("invalid url on fetch", func(t *testing.T) {
		t.Parallel()

		rec := do(t, New(&fakePipeline{}), http.MethodPost, "/api/fetch", `{"urls":["ftp://x"]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAsk(t *testing.T) {
	t.Parallel()

	t.Run("answers", func(t *testing.T) {
		t.Parallel()

		s := New(&fakePipeline{}, WithAnswerer(fakeAnswerer{}))
		rec := do(t, s, http.MethodPost, "/api/ask", `{"markdown":"# Page","question":"summarize"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decode[answerResponse](t, rec); got.Answer != "answer about # Page" {
			t.Errorf("unexpected answer %q", got.Answer)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		rec := do(t, New(&fakePipeline{}), http.MethodPost, "/api/ask", `{"markdown":"x","question":"y"}`)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("expected 501, got %d", rec.Code)
		}
	})
}

func TestHistoryEndpoints(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	a := model.NewManualAnalysis([]string{"https://a.com/"}, model.ModeScrape, "what is a")
	a.Pages = []model.PageRecord{{URL: "https://a.com/", Title: "A", RawMarkdown: "body"}}
	a.Report = &model.SynthesizedReport{
		Markdown:  "A is a letter [[1]](https://a.com/).",
		SourceMap: map[int]string{1: "https://a.com/"},
	}
	a.Finish()
	if err := db.SaveAnalysis(t.Context(), a); err != nil {
		t.Fatalf("failed to save analysis: %v", err)
	}
	s := New(&fakePipeline{}, WithStore(db), WithVersion("1.0.0"))

	t.Run("list", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses?limit=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		got := decode[analysesResponse](t, rec)
		if len(got.Analyses) != 1 || got.Analyses[0].ID != a.ID {
			t.Errorf("unexpected analyses %+v", got.Analyses)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses?limit=-1", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses/"+a.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decode[model.Analysis](t, rec); got.Goal != "what is a" {
			t.Errorf("unexpected goal %q", got.Goal)
		}
	})

	t.Run("export markdown", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses/"+a.ID+"/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
			t.Errorf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, a.ID+".md") {
			t.Errorf("unexpected content disposition %q", cd)
		}
		if !strings.Contains(rec.Body.String(), "# Intelligence Report") {
			t.Error("expected markdown report")
		}
	})

	t.Run("export html", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses/"+a.ID+"/export?format=html", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte(`href="https://a.com/"`)) {
			t.Error("expected rendered citation link")
		}
	})

	t.Run("export unknown format", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses/"+a.ID+"/export?format=pdf", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/analyses/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		other := model.NewAutoAnalysis("to delete")
		if err := db.SaveAnalysis(t.Context(), other); err != nil {
			t.Fatalf("failed to save analysis: %v", err)
		}

		rec := do(t, s, http.MethodDelete, "/api/analyses/"+other.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
		}
		rec = do(t, s, http.MethodDelete, "/api/analyses/"+other.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})

	t.Run("history disabled", func(t *testing.T) {
		rec := do(t, New(&fakePipeline{}), http.MethodGet, "/api/analyses", "")
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("expected 501, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rate limit", func(t *testing.T) {
		t.Parallel()

		s := New(&fakePipeline{}, WithRateLimit(0.001, 1))
		if rec := do(t, s, http.MethodGet, "/api/analyses", ""); rec.Code == http.StatusTooManyRequests {
			t.Fatal("first request should pass the limiter")
		}
		rec := do(t, s, http.MethodGet, "/api/analyses", "")
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
		if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Errorf("expected health to bypass the limiter, got %d", rec.Code)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		t.Parallel()

		rec := do(t, New(&fakePipeline{}), http.MethodOptions, "/api/plan", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS header")
		}
	})
}

func TestStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// A cancelled context shuts the server down right after it starts.
	if err := New(&fakePipeline{}).Start(ctx, "127.0.0.1:0"); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
