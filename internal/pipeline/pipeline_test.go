package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/govai-bd/govai/internal/answer"
	"github.com/govai-bd/govai/internal/language"
	"github.com/govai-bd/govai/internal/metrics"
	appctx "github.com/govai-bd/govai/internal/pkg/context"
	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
	"github.com/govai-bd/govai/internal/querylog"
	"github.com/govai-bd/govai/internal/search"
)

type fakeProvider struct {
	name    string
	results []search.Result
	err     error
	block   bool
	calls   atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeLLM struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) Generate(ctx context.Context, req answer.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, f.err
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingStore struct {
	*querylog.MemoryStore
}

func (failingStore) Append(ctx context.Context, r querylog.Record) error {
	return errors.New("disk full")
}

func govResults(n int) []search.Result {
	out := make([]search.Result, n)
	for i := range out {
		out[i] = search.Result{
			Title:   fmt.Sprintf("বহিরাগমন ও পাসপোর্ট অধিদপ্তর %d", i+1),
			URL:     fmt.Sprintf("https://www.dip.gov.bd/page/%d", i+1),
			Snippet: "ই-পাসপোর্ট আবেদনের জন্য জাতীয় পরিচয়পত্র প্রয়োজন",
			Score:   0.8,
		}
	}
	return out
}

type harness struct {
	pipeline  *Pipeline
	primary   *fakeProvider
	secondary *fakeProvider
	llm       *fakeLLM
	store     querylog.Store
	metrics   *metrics.Metrics
}

type option func(*harnessConfig)

type harnessConfig struct {
	store         querylog.Store
	searchTimeout time.Duration
	maxRetries    int
	maxQueryChars int
}

func newHarness(t *testing.T, primary, secondary *fakeProvider, llm *fakeLLM, opts ...option) *harness {
	t.Helper()

	hc := harnessConfig{
		store:         querylog.NewMemoryStore(),
		searchTimeout: time.Second,
		maxRetries:    2,
	}
	for _, opt := range opts {
		opt(&hc)
	}

	log := logger.Discard()
	m := metrics.New()

	orch := search.NewOrchestrator(search.Config{
		MaxResults: 5,
		Timeout:    hc.searchTimeout,
	}, log, m, primary, secondary)

	genCfg := answer.DefaultConfig()
	genCfg.MaxRetries = hc.maxRetries
	genCfg.MinBackoff = 0
	genCfg.MaxBackoff = 0
	genCfg.Timeout = time.Second

	var backend answer.LLM
	if llm != nil {
		backend = llm
	}

	p := New(Config{MaxQueryChars: hc.maxQueryChars}, Components{
		Search:    orch,
		Generator: answer.NewGenerator(backend, genCfg, log, m),
		QueryLog:  querylog.NewQueryLogger(hc.store, log, m, time.Second),
	}, log, m)

	return &harness{
		pipeline:  p,
		primary:   primary,
		secondary: secondary,
		llm:       llm,
		store:     hc.store,
		metrics:   m,
	}
}

func withStore(s querylog.Store) option {
	return func(c *harnessConfig) { c.store = s }
}

func withSearchTimeout(d time.Duration) option {
	return func(c *harnessConfig) { c.searchTimeout = d }
}

func withMaxQueryChars(n int) option {
	return func(c *harnessConfig) { c.maxQueryChars = n }
}

func (h *harness) records(t *testing.T) []querylog.Record {
	t.Helper()
	res, err := h.store.ReadAll(context.Background(), querylog.All())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return res.Records
}

const bnAnswer = "পাসপোর্টের জন্য জাতীয় পরিচয়পত্র ও ছবি লাগবে"

func TestProcess_BanglishPassportQuery(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(3)},
		&fakeProvider{name: "serpapi", results: govResults(5)},
		&fakeLLM{text: bnAnswer},
	)

	resp, err := h.pipeline.Process(context.Background(), Request{
		Query:          "passport korte ki ki lagbe?",
		IncludeSources: true,
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if resp.Language != string(language.Banglish) {
		t.Errorf("Language = %q, want banglish", resp.Language)
	}
	if resp.Answer == "" || !strings.HasPrefix(resp.Answer, "পাসপোর্টের") {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 3 {
		t.Errorf("Sources = %d, want 3", len(resp.Sources))
	}
	for _, s := range resp.Sources {
		if s.Provider != "tavily" {
			t.Errorf("source provider = %q, want tavily", s.Provider)
		}
	}
	if resp.Degraded {
		t.Error("response should not be degraded")
	}
	if h.secondary.calls.Load() != 0 {
		t.Errorf("secondary called %d times, want 0", h.secondary.calls.Load())
	}

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	r := recs[0]
	if !r.Success || r.Provider != "tavily" || r.SourceCount != 3 || r.Attempts != 1 {
		t.Errorf("record = %+v", r)
	}
	if !r.GovRelated {
		t.Error("passport query should be government related")
	}
}

func TestProcess_SourcesOmittedUnlessRequested(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(2)},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
	)

	resp, err := h.pipeline.Process(context.Background(), Request{Query: "NID card kivabe pabo"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.Sources != nil {
		t.Errorf("Sources = %v, want nil", resp.Sources)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"sources"`) {
		t.Errorf("unrequested sources encoded: %s", data)
	}
}

func TestProcess_InvalidQueryWritesNoRecord(t *testing.T) {
	tests := []struct {
		name  string
		query string
		max   int
	}{
		{"empty", "", 0},
		{"whitespace", "   \t\n ", 0},
		{"only markup", "<>{}[]", 0},
		{"too long", strings.Repeat("ক", 21), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeProvider{name: "tavily", results: govResults(1)}
			llm := &fakeLLM{text: bnAnswer}
			h := newHarness(t, primary, &fakeProvider{name: "serpapi"}, llm, withMaxQueryChars(tt.max))

			resp, err := h.pipeline.Process(context.Background(), Request{Query: tt.query})
			if err == nil {
				t.Fatalf("Process() = %+v, want error", resp)
			}
			if !apperrors.IsInvalidQuery(err) {
				t.Errorf("error code = %q, want INVALID_QUERY", apperrors.Code(err))
			}
			if n := len(h.records(t)); n != 0 {
				t.Errorf("records = %d, want 0", n)
			}
			if primary.calls.Load() != 0 || llm.Calls() != 0 {
				t.Error("no stage should run for an invalid query")
			}
			if h.metrics.QueriesRejected.Value() != 1 {
				t.Errorf("rejected = %d, want 1", h.metrics.QueriesRejected.Value())
			}
		})
	}
}

func TestProcess_BothProvidersTimeOut(t *testing.T) {
	primary := &fakeProvider{name: "tavily", block: true}
	secondary := &fakeProvider{name: "serpapi", block: true}
	h := newHarness(t, primary, secondary, &fakeLLM{text: bnAnswer},
		withSearchTimeout(20*time.Millisecond))

	resp, err := h.pipeline.Process(context.Background(), Request{
		Query:          "জন্ম নিবন্ধন কিভাবে করব?",
		IncludeSources: true,
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if resp.Answer == "" {
		t.Error("answer should still be generated")
	}
	if resp.Degraded {
		t.Error("generation succeeded, response should not be degraded")
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil", resp.Sources)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sources":[]`) {
		t.Errorf("requested empty sources not encoded as []: %s", data)
	}
	if primary.calls.Load() != 1 || secondary.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls.Load(), secondary.calls.Load())
	}

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].SourceCount != 0 || recs[0].Provider != "" {
		t.Errorf("record = %+v", recs[0])
	}
	if h.metrics.SearchEmpty.Value() != 1 {
		t.Errorf("search empty = %d, want 1", h.metrics.SearchEmpty.Value())
	}
}

func TestProcess_GenerationRetriesThenFallsBack(t *testing.T) {
	llm := &fakeLLM{err: apperrors.New(apperrors.CodeUnavailable, "503")}
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(2)},
		&fakeProvider{name: "serpapi"},
		llm,
	)

	resp, err := h.pipeline.Process(context.Background(), Request{Query: "trade license fee koto"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if llm.Calls() != 3 {
		t.Errorf("LLM calls = %d, want 3", llm.Calls())
	}
	if !resp.Degraded {
		t.Error("response should be degraded")
	}
	if resp.Answer != answer.FallbackText("trade license fee koto") {
		t.Errorf("Answer = %q, want fallback", resp.Answer)
	}

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Success || recs[0].Attempts != 3 || recs[0].Error != apperrors.CodeGeneration {
		t.Errorf("record = %+v", recs[0])
	}
	if h.metrics.GenerationFallbacks.Value() != 1 {
		t.Errorf("fallbacks = %d, want 1", h.metrics.GenerationFallbacks.Value())
	}
}

func TestProcess_EverythingFails(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", err: apperrors.UnauthorizedError()},
		&fakeProvider{name: "serpapi", err: apperrors.New(apperrors.CodeUnavailable, "down")},
		nil,
	)

	resp, err := h.pipeline.Process(context.Background(), Request{Query: "land khatian check"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.Answer == "" || !resp.Degraded {
		t.Errorf("resp = %+v, want degraded fallback", resp)
	}
	if n := len(h.records(t)); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestProcess_LogSinkFailureIsHidden(t *testing.T) {
	store := failingStore{querylog.NewMemoryStore()}
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(1)},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
		withStore(store),
	)

	resp, err := h.pipeline.Process(context.Background(), Request{Query: "visa processing time"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.Degraded {
		t.Error("log failure must not degrade the response")
	}
	if h.metrics.LogSinkFailures.Value() != 1 {
		t.Errorf("log sink failures = %d, want 1", h.metrics.LogSinkFailures.Value())
	}
}

func TestProcess_CancelledRequestStillLogged(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", block: true},
		&fakeProvider{name: "serpapi", block: true},
		&fakeLLM{text: bnAnswer},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := h.pipeline.Process(ctx, Request{Query: "passport renew"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !resp.Degraded {
		t.Error("cancelled request should be degraded")
	}

	recs := h.records(t)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Success || recs[0].Error != "request cancelled" {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestProcess_RecordCarriesRequestContext(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(1)},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
	)

	ctx := appctx.WithRequestID(context.Background(), "req-42")
	_, err := h.pipeline.Process(ctx, Request{
		Query:      "  passport\x00   fee  ",
		UserID:     "user-7",
		ClientAddr: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	r := h.records(t)[0]
	if r.Query != "passport fee" {
		t.Errorf("Query = %q, want sanitized", r.Query)
	}
	if r.RequestID != "req-42" || r.UserID != "user-7" || r.ClientAddr != "203.0.113.9" {
		t.Errorf("record = %+v", r)
	}
	if r.ID == "" || r.Timestamp.IsZero() {
		t.Error("record should have id and timestamp")
	}
}

func TestProcess_OneRecordPerCall(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(2)},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
	)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := h.pipeline.Process(context.Background(), Request{Query: fmt.Sprintf("tax return %d", i)}); err != nil {
				t.Errorf("Process() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := len(h.records(t)); got != n {
		t.Errorf("records = %d, want %d", got, n)
	}
}

func TestStats_LanguageCountsSumToTotal(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily", results: govResults(1)},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
	)

	queries := map[language.Language][]string{
		language.Bengali:  {"পাসপোর্ট কিভাবে করব?", "জন্ম নিবন্ধন ফি কত?"},
		language.English:  {"How do I renew my passport?", "driving licence fee", "income tax deadline"},
		language.Banglish: {"passport korte ki ki lagbe?"},
	}
	total := 0
	for _, qs := range queries {
		for _, q := range qs {
			if _, err := h.pipeline.Process(context.Background(), Request{Query: q}); err != nil {
				t.Fatalf("Process(%q) error = %v", q, err)
			}
			total++
		}
	}

	stats, err := h.pipeline.Stats(context.Background(), querylog.All(), 5)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalQueries != total {
		t.Errorf("TotalQueries = %d, want %d", stats.TotalQueries, total)
	}
	sum := 0
	for lang, qs := range queries {
		if got := stats.Languages[string(lang)]; got != len(qs) {
			t.Errorf("Languages[%s] = %d, want %d", lang, got, len(qs))
		}
		sum += stats.Languages[string(lang)]
	}
	if sum != stats.TotalQueries {
		t.Errorf("language sum = %d, total = %d", sum, stats.TotalQueries)
	}

	logs, err := h.pipeline.RecentLogs(context.Background(), 2)
	if err != nil {
		t.Fatalf("RecentLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("RecentLogs() = %d, want 2", len(logs))
	}
}

func TestInfo(t *testing.T) {
	h := newHarness(t,
		&fakeProvider{name: "tavily"},
		&fakeProvider{name: "serpapi"},
		&fakeLLM{text: bnAnswer},
	)

	info := h.pipeline.Info()
	if strings.Join(info.SearchProviders, ",") != "tavily,serpapi" {
		t.Errorf("SearchProviders = %v", info.SearchProviders)
	}
	if info.LLM != "fake-llm" || info.MaxResults != 5 {
		t.Errorf("info = %+v", info)
	}
}
