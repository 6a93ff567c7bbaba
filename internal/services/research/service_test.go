package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
	"github.com/bobmcallan/finsight/internal/storage"
)

// mockExtractor returns fixed symbols
type mockExtractor struct {
	symbols []string
	err     error
}

func (m *mockExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	return m.symbols, m.err
}

func (m *mockExtractor) Refresh(_ context.Context) error { return nil }

func (m *mockExtractor) AddCompanyMapping(_ context.Context, _, _ string) error { return nil }

// mockResolver returns defaulted records for every symbol
type mockResolver struct{}

func (m *mockResolver) Resolve(_ context.Context, symbol string) *models.SymbolRecord {
	return &models.SymbolRecord{
		Symbol:      symbol,
		StockData:   models.StockData{Symbol: symbol, Price: 100, Change: 2, MarketCap: 2e12, PERatio: 28},
		CompanyInfo: models.CompanyInfo{Name: symbol + " Inc.", Sector: "Technology"},
		Recommendations: models.AnalystRecommendation{
			Buy: 10, Hold: 4, Sell: 1,
		},
		RecentNews: []models.CompanyNews{{Title: symbol + " in the news", Source: "Wire"}},
	}
}

func (m *mockResolver) ResolveAll(ctx context.Context, symbols []string) ([]*models.SymbolRecord, int) {
	records := make([]*models.SymbolRecord, 0, len(symbols))
	for _, s := range symbols {
		records = append(records, m.Resolve(ctx, s))
	}
	return records, 0
}

// mockAI completes every prompt, or fails for configured kinds. Kind is
// recovered from the system prompt so concurrent calls stay independent.
type mockAI struct {
	mu       sync.Mutex
	calls    int
	failFor  map[models.AnalysisKind]bool
	response string
}

func (m *mockAI) Complete(_ context.Context, system, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	for kind, prompt := range systemPrompts {
		if prompt == system && m.failFor[kind] {
			return "", errors.New("model unavailable")
		}
	}
	if m.response != "" {
		return m.response, nil
	}
	return "Markets look stable.\n\nDetailed discussion follows.", nil
}

type mockSearch struct {
	results []models.WebSearchResult
	err     error
}

func (m *mockSearch) Search(_ context.Context, _ string) ([]models.WebSearchResult, error) {
	return m.results, m.err
}

func newTestService(t *testing.T, ai *mockAI, search *mockSearch, extractor *mockExtractor) (*Service, *events.InProcBus, *storage.MemoryStateStore) {
	t.Helper()
	logger := common.NewSilentLogger()
	bus := events.NewSynchronousBus(logger)
	state := storage.NewMemoryStateStore()

	svc := NewService(bus, state, extractor, &mockResolver{}, ai, search,
		WithLogger(logger),
		WithClock(func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	return svc, bus, state
}

func defaultMocks() (*mockAI, *mockSearch, *mockExtractor) {
	return &mockAI{},
		&mockSearch{results: []models.WebSearchResult{{Title: "Apple earnings beat", Snippet: "Strong quarter", URL: "https://example.com"}}},
		&mockExtractor{symbols: []string{"AAPL"}}
}

func TestWorkflow_EndToEnd(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	require.NoError(t, svc.SubmitQuery(ctx, "trace-1", "I like APPLE stock"))

	result, err := svc.GetResult(ctx, "trace-1")
	require.NoError(t, err)
	require.NotNil(t, result.Report)

	assert.Equal(t, "I like APPLE stock", result.Query)
	assert.Equal(t, models.WorkflowCompleted, result.Status)
	assert.Len(t, result.Report.Sections, models.ExpectedAnalysisCount)
	assert.Equal(t, models.ExpectedAnalysisCount, result.Report.Metadata.CompletedAnalyses)
	assert.Contains(t, result.Report.ExecutiveSummary, "5 specialized perspectives")

	status, err := svc.GetStatus(ctx, "trace-1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowCompleted, status.Status)
}

func TestWorkflow_PartialAnalysisFailureStaysIncomplete(t *testing.T) {
	ai, search, extractor := defaultMocks()
	ai.failFor = map[models.AnalysisKind]bool{
		models.AnalysisRisk:      true,
		models.AnalysisTechnical: true,
	}
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	require.NoError(t, svc.SubmitQuery(ctx, "trace-2", "I like APPLE stock"))

	// Only 3 of 5 analyses recorded: the rendezvous must not fire.
	_, err := svc.GetResult(ctx, "trace-2")
	assert.ErrorIs(t, err, ErrResultNotFound)

	_, err = svc.GetStatus(ctx, "trace-2")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestWorkflow_SearchFailureStillCompletes(t *testing.T) {
	ai, _, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, &mockSearch{err: errors.New("search down")}, extractor)
	ctx := context.Background()

	require.NoError(t, svc.SubmitQuery(ctx, "trace-3", "I like APPLE stock"))

	result, err := svc.GetResult(ctx, "trace-3")
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Len(t, result.Report.Sections, models.ExpectedAnalysisCount)
}

func TestWorkflow_NoSymbolsStillCompletes(t *testing.T) {
	ai, search, _ := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, &mockExtractor{symbols: nil})
	ctx := context.Background()

	require.NoError(t, svc.SubmitQuery(ctx, "trace-4", "what should I buy"))

	result, err := svc.GetResult(ctx, "trace-4")
	require.NoError(t, err)
	require.NotNil(t, result.Report)
}

func TestSubmitQuery_Validation(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)

	assert.Error(t, svc.SubmitQuery(context.Background(), "", "query"))
	assert.Error(t, svc.SubmitQuery(context.Background(), "trace", ""))
}

func TestCombiner_NoInputsIsNoOp(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, state := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	err := svc.handleStageCompletion(ctx, events.Event{
		Topic:   TopicWebSearchCompleted,
		TraceID: "trace-5",
		Payload: models.WebSearchCompletion{Query: "q", ResultSummary: "Search failed"},
	})
	require.NoError(t, err)

	_, err = state.Get(ctx, "trace-5", keyResponseData)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCombiner_ProceedsWithSingleInput(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	require.NoError(t, svc.setState(ctx, "trace-6", keyWebSearchResults, models.SearchResponse{
		Results: []models.WebSearchResult{{Title: "hit"}},
		Success: true,
	}))

	err := svc.handleStageCompletion(ctx, events.Event{
		Topic:   TopicWebSearchCompleted,
		TraceID: "trace-6",
		Payload: models.WebSearchCompletion{Query: "q"},
	})
	require.NoError(t, err)

	var completion models.ResponseCompletion
	found, err := svc.getState(ctx, "trace-6", keyResponseData, &completion)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, completion.Response)
	assert.Equal(t, `Results for "q"`, completion.Response.Summary)
	assert.Len(t, completion.Response.WebResources, 1)
	assert.Empty(t, completion.Response.FinancialData)
}

func TestCombiner_MarkerSuppressesSecondBuild(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	require.NoError(t, svc.setState(ctx, "trace-7", keyWebSearchResults, models.SearchResponse{Success: true}))

	ev := events.Event{
		Topic:   TopicWebSearchCompleted,
		TraceID: "trace-7",
		Payload: models.WebSearchCompletion{Query: "first"},
	}
	require.NoError(t, svc.handleStageCompletion(ctx, ev))

	// Redelivery with a different query must not overwrite the response.
	ev.Payload = models.WebSearchCompletion{Query: "second"}
	require.NoError(t, svc.handleStageCompletion(ctx, ev))

	var completion models.ResponseCompletion
	found, err := svc.getState(ctx, "trace-7", keyResponseData, &completion)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", completion.Query)
}

// seedAnalyses stores artifacts for the given kinds directly in state.
func seedAnalyses(t *testing.T, svc *Service, traceID string, kinds ...models.AnalysisKind) {
	t.Helper()
	for _, kind := range kinds {
		cfg := models.KindConfig(kind)
		require.NotNil(t, cfg)
		require.NoError(t, svc.setState(context.Background(), traceID, cfg.StateKey, &models.AnalysisArtifact{
			Kind:             kind,
			Summary:          fmt.Sprintf("%s summary", kind),
			DetailedAnalysis: fmt.Sprintf("%s detail", kind),
		}))
	}
}

func completionFor(kind models.AnalysisKind) models.AnalysisCompletion {
	return models.AnalysisCompletion{
		Query: "q",
		Kind:  kind,
		Artifact: &models.AnalysisArtifact{
			Kind:             kind,
			Summary:          fmt.Sprintf("%s summary", kind),
			DetailedAnalysis: fmt.Sprintf("%s detail", kind),
		},
	}
}

func TestCoordinator_WaitsBelowCardinality(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	seedAnalyses(t, svc, "trace-8", models.AnalysisGeneral, models.AnalysisRisk)

	err := svc.handleAnalysisCompleted(ctx, events.Event{
		Topic:   models.KindConfig(models.AnalysisRisk).Topic,
		TraceID: "trace-8",
		Payload: completionFor(models.AnalysisRisk),
	})
	require.NoError(t, err)

	var report models.ComprehensiveReport
	found, err := svc.getState(ctx, "trace-8", keyComprehensiveAnalysis, &report)
	require.NoError(t, err)
	assert.False(t, found, "report must not be built below the expected count")
}

func TestCoordinator_DuplicateFifthSignalDoesNotRebuild(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	kinds := []models.AnalysisKind{
		models.AnalysisGeneral, models.AnalysisFundamental, models.AnalysisPortfolio,
		models.AnalysisRisk, models.AnalysisTechnical,
	}
	seedAnalyses(t, svc, "trace-9", kinds...)
	require.NoError(t, svc.setState(ctx, "trace-9", keyOriginalQuery, "q"))

	deliver := func(kind models.AnalysisKind) {
		require.NoError(t, svc.handleAnalysisCompleted(ctx, events.Event{
			Topic:   models.KindConfig(kind).Topic,
			TraceID: "trace-9",
			Payload: completionFor(kind),
		}))
	}

	deliver(models.AnalysisTechnical)

	var first models.ComprehensiveReport
	found, err := svc.getState(ctx, "trace-9", keyComprehensiveAnalysis, &first)
	require.NoError(t, err)
	require.True(t, found)

	// Redeliver the same fifth signal: CompletionSet and report unchanged.
	deliver(models.AnalysisTechnical)

	var second models.ComprehensiveReport
	_, err = svc.getState(ctx, "trace-9", keyComprehensiveAnalysis, &second)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCoordinator_DeterministicUnderArrivalPermutations(t *testing.T) {
	kinds := []models.AnalysisKind{
		models.AnalysisGeneral, models.AnalysisFundamental, models.AnalysisPortfolio,
		models.AnalysisRisk, models.AnalysisTechnical,
	}

	permutations := [][]models.AnalysisKind{
		{kinds[0], kinds[1], kinds[2], kinds[3], kinds[4]},
		{kinds[4], kinds[3], kinds[2], kinds[1], kinds[0]},
		{kinds[2], kinds[0], kinds[4], kinds[1], kinds[3]},
		{kinds[3], kinds[4], kinds[0], kinds[2], kinds[1]},
	}

	var reports []*models.ComprehensiveReport
	for i, order := range permutations {
		ai, search, extractor := defaultMocks()
		svc, _, _ := newTestService(t, ai, search, extractor)
		ctx := context.Background()
		traceID := fmt.Sprintf("perm-%d", i)

		require.NoError(t, svc.setState(ctx, traceID, keyOriginalQuery, "q"))
		for _, kind := range order {
			require.NoError(t, svc.handleAnalysisCompleted(ctx, events.Event{
				Topic:   models.KindConfig(kind).Topic,
				TraceID: traceID,
				Payload: completionFor(kind),
			}))
		}

		var report models.ComprehensiveReport
		found, err := svc.getState(ctx, traceID, keyComprehensiveAnalysis, &report)
		require.NoError(t, err)
		require.True(t, found, "permutation %d did not build a report", i)
		reports = append(reports, &report)
	}

	for i := 1; i < len(reports); i++ {
		assert.Equal(t, reports[0], reports[i], "permutation %d produced a different report", i)
	}
	assert.Equal(t,
		[]string{"general", "fundamental", "portfolio", "risk", "technical"},
		reports[0].Metadata.AnalysisTypes)
}

func TestPersister_SavedOnce(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, state := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	report := buildComprehensiveReport(map[models.AnalysisKind]*models.AnalysisArtifact{
		models.AnalysisGeneral: {Kind: models.AnalysisGeneral, Summary: "s", DetailedAnalysis: "d"},
	}, svc.now())
	require.NoError(t, svc.setState(ctx, "trace-10", keyQueryResult, models.QueryResult{
		Query:  "q",
		Report: report,
		Status: models.WorkflowCompleted,
	}))

	ev := events.Event{
		Topic:   TopicComprehensiveComplete,
		TraceID: "trace-10",
		Payload: models.ComprehensiveCompletion{Query: "q", Report: report, Status: "success"},
	}
	require.NoError(t, svc.handlePersistResults(ctx, ev))

	statusData, err := state.Get(ctx, "trace-10", keyWorkflowStatus)
	require.NoError(t, err)

	// Second delivery is a no-op: the stored status bytes do not change.
	require.NoError(t, svc.handlePersistResults(ctx, ev))
	statusAfter, err := state.Get(ctx, "trace-10", keyWorkflowStatus)
	require.NoError(t, err)
	assert.Equal(t, statusData, statusAfter)

	result, err := svc.GetResult(ctx, "trace-10")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowCompleted, result.Status)
	assert.False(t, result.CompletedAt.IsZero())
}

func TestPersister_NoResultsIsNoOp(t *testing.T) {
	ai, search, extractor := defaultMocks()
	svc, _, _ := newTestService(t, ai, search, extractor)
	ctx := context.Background()

	err := svc.handlePersistResults(ctx, events.Event{
		Topic:   TopicComprehensiveComplete,
		TraceID: "trace-11",
		Payload: models.ComprehensiveCompletion{Status: "error"},
	})
	require.NoError(t, err)

	_, err = svc.GetStatus(ctx, "trace-11")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestExtractSummary(t *testing.T) {
	assert.Equal(t, "No analysis summary available", extractSummary("   "))
	assert.Equal(t, "Short first paragraph.", extractSummary("Short first paragraph.\n\nRest of the analysis."))

	long := strings.Repeat("word ", 40) // 200 chars
	got := extractSummary(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 151)
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(got, "..."), " "))
}

func TestGenerateExecutiveSummary(t *testing.T) {
	assert.Equal(t,
		"Comprehensive financial analysis completed with multiple specialized perspectives.",
		generateExecutiveSummary(nil))
	assert.Equal(t,
		"Comprehensive analysis completed with 2 specialized perspectives: a; b",
		generateExecutiveSummary([]string{"a", "", "b"}))
}

func TestBuildComprehensiveReport_SummaryFallback(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := buildComprehensiveReport(map[models.AnalysisKind]*models.AnalysisArtifact{
		models.AnalysisRisk: {Kind: models.AnalysisRisk, DetailedAnalysis: "details"},
	}, now)

	section := report.Sections[models.AnalysisRisk]
	assert.Equal(t, "risk analysis completed", section.Summary)
	assert.Equal(t, "Risk Assessment & Management", section.Title)
	assert.Equal(t, 1, report.Metadata.CompletedAnalyses)
	assert.Equal(t, models.ExpectedAnalysisCount, report.Metadata.TotalAnalyses)
}
