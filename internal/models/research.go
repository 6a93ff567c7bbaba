package models

import "time"

// WebSearchResult is one ranked web search hit.
type WebSearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchResponse is the outcome of one web search call.
type SearchResponse struct {
	Results []WebSearchResult `json:"results"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
}

// WebSearchCompletion is the payload emitted when the web research stage
// finishes, successfully or not.
type WebSearchCompletion struct {
	Query         string            `json:"query"`
	ResultCount   int               `json:"resultCount"`
	ResultSummary string            `json:"resultSummary,omitempty"`
	Results       []WebSearchResult `json:"results"`
}

// FinanceDataCompletion is the payload emitted when the data aggregation
// stage finishes. Zero symbols is a valid terminal state, reported via
// ResultSummary, not an error.
type FinanceDataCompletion struct {
	Query         string   `json:"query"`
	Symbols       []string `json:"symbols"`
	ResultCount   int      `json:"resultCount"`
	FailedCount   int      `json:"failedCount"`
	ResultSummary string   `json:"resultSummary"`
}

// FinancialSummary is the formatted per-symbol view embedded in the
// combined response and fed to the analysis prompts.
type FinancialSummary struct {
	Symbol      string        `json:"symbol"`
	Company     string        `json:"company"`
	Sector      string        `json:"sector"`
	Price       string        `json:"currentPrice"`
	PriceChange PriceChange   `json:"priceChange"`
	MarketCap   string        `json:"marketCap"`
	PERatio     string        `json:"peRatio"`
	Rating      string        `json:"analystRating"`
	RecentNews  []CompanyNews `json:"recentNews"`
}

// PriceChange is the formatted absolute and percentage move.
type PriceChange struct {
	Value      string `json:"value"`
	Percentage string `json:"percentage"`
}

// CombinedResponse joins web research and financial data for one query.
type CombinedResponse struct {
	Query         string             `json:"query"`
	Summary       string             `json:"summary"`
	WebResources  []WebSearchResult  `json:"webResources"`
	FinancialData []FinancialSummary `json:"financialData"`
}

// ResponseCompletion is emitted once the combiner has produced its payload.
type ResponseCompletion struct {
	Query     string            `json:"query"`
	Timestamp time.Time         `json:"timestamp"`
	Response  *CombinedResponse `json:"response"`
}

// AnalysisCompletion is emitted exactly once per analysis kind, success or
// failure. Artifact is nil when the analysis failed.
type AnalysisCompletion struct {
	Query     string            `json:"query"`
	Kind      AnalysisKind      `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Artifact  *AnalysisArtifact `json:"analysis"`
	Error     string            `json:"error,omitempty"`
}

// ComprehensiveCompletion is emitted once the fan-in coordinator has built
// and persisted the comprehensive report.
type ComprehensiveCompletion struct {
	Query  string               `json:"query"`
	Report *ComprehensiveReport `json:"comprehensiveReport"`
	Status string               `json:"status"`
}

// QueryResult is the compact result record persisted for API reads.
type QueryResult struct {
	Query       string               `json:"query"`
	Timestamp   time.Time            `json:"timestamp"`
	Report      *ComprehensiveReport `json:"comprehensiveReport"`
	Status      string               `json:"status"`
	CompletedAt time.Time            `json:"completedAt,omitzero"`
}

// Workflow status values.
const (
	WorkflowCompleted = "completed"
	WorkflowFailed    = "failed"
)

// WorkflowStatus records terminal workflow state for a query instance.
type WorkflowStatus struct {
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completedAt"`
	Error       string    `json:"error,omitempty"`
}

// StageEvent is broadcast to websocket observers as workflow stages complete.
type StageEvent struct {
	TraceID   string    `json:"traceId"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}
