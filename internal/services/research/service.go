// Package research implements the fan-out/fan-in research workflow: a query
// fans out to web search and financial data aggregation, their combined
// payload seeds five AI analyses, and a count-based rendezvous folds the
// analyses into one comprehensive report.
//
// Every handler is idempotent under event redelivery: progress markers are
// persisted in the scoped state store and re-checked before side effects.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/models"
	"github.com/bobmcallan/finsight/internal/storage"
)

// Workflow event topics. Per-kind analysis completion topics live in
// models.AnalysisKinds.
const (
	TopicQueryReceived         = "query.received"
	TopicWebSearchCompleted    = "web.search.completed"
	TopicFinanceDataCompleted  = "finance.data.completed"
	TopicResponseCompleted     = "response.completed"
	TopicComprehensiveComplete = "comprehensive.analysis.completed"
)

// State keys, scoped per trace ID.
const (
	keyOriginalQuery         = "original.query"
	keyWebSearchResults      = "web.search.results"
	keyFinanceData           = "finance.data"
	keyResponseData          = "response.data"
	keyResponseCoordinated   = "response.coordination.completed"
	keyCoordinationCompleted = "coordination.completed"
	keyComprehensiveAnalysis = "comprehensive.analysis"
	keyComprehensiveResults  = "comprehensive.results"
	keyQueryResult           = "query.result"
	keyResultsSaved          = "results.saved"
	keyUIResult              = "ui.result"
	keyAPIResult             = "api.result"
	keyWorkflowStatus        = "workflow.status"
)

// ErrResultNotFound is returned while a workflow has not persisted a
// readable result yet.
var ErrResultNotFound = errors.New("no result found for trace ID")

// QuerySubmission is the payload published on query.received.
type QuerySubmission struct {
	Query string `json:"query"`
}

// Service wires the workflow handlers to the event bus and serves results.
type Service struct {
	bus       events.Bus
	state     interfaces.StateStore
	extractor interfaces.SymbolExtractor
	resolver  interfaces.MarketDataResolver
	ai        interfaces.AIClient
	search    interfaces.SearchClient
	logger    *common.Logger
	now       func() time.Time
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the research service and subscribes every workflow
// handler to its topics.
func NewService(
	bus events.Bus,
	state interfaces.StateStore,
	extractor interfaces.SymbolExtractor,
	resolver interfaces.MarketDataResolver,
	ai interfaces.AIClient,
	search interfaces.SearchClient,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		bus:       bus,
		state:     state,
		extractor: extractor,
		resolver:  resolver,
		ai:        ai,
		search:    search,
		logger:    common.NewSilentLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	bus.Subscribe(TopicQueryReceived, s.handleWebResearch)
	bus.Subscribe(TopicQueryReceived, s.handleDataAggregation)
	bus.Subscribe(TopicWebSearchCompleted, s.handleStageCompletion)
	bus.Subscribe(TopicFinanceDataCompleted, s.handleStageCompletion)
	bus.Subscribe(TopicResponseCompleted, s.handleAnalysisFanOut)
	for _, cfg := range models.AnalysisKinds {
		bus.Subscribe(cfg.Topic, s.handleAnalysisCompleted)
	}
	bus.Subscribe(TopicComprehensiveComplete, s.handlePersistResults)

	return s
}

// SubmitQuery starts the workflow for a query under the given trace ID.
func (s *Service) SubmitQuery(ctx context.Context, traceID, query string) error {
	if traceID == "" {
		return fmt.Errorf("trace ID is required")
	}
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}

	s.logger.Info().Str("trace_id", traceID).Msg("Query received, starting workflow")

	s.bus.Publish(ctx, events.Event{
		Topic:   TopicQueryReceived,
		TraceID: traceID,
		Payload: QuerySubmission{Query: query},
	})
	return nil
}

// GetResult returns the persisted result for a trace ID, preferring the most
// specific stored representation.
func (s *Service) GetResult(ctx context.Context, traceID string) (*models.QueryResult, error) {
	for _, key := range []string{keyAPIResult, keyComprehensiveResults, keyQueryResult} {
		var result models.QueryResult
		found, err := s.getState(ctx, traceID, key, &result)
		if err != nil {
			return nil, err
		}
		if found {
			return &result, nil
		}
	}
	return nil, ErrResultNotFound
}

// GetStatus returns the terminal workflow status for a trace ID.
func (s *Service) GetStatus(ctx context.Context, traceID string) (*models.WorkflowStatus, error) {
	var status models.WorkflowStatus
	found, err := s.getState(ctx, traceID, keyWorkflowStatus, &status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrResultNotFound
	}
	return &status, nil
}

// getState reads and unmarshals a scoped state value. Absent keys report
// found=false without error.
func (s *Service) getState(ctx context.Context, traceID, key string, dest any) (bool, error) {
	data, err := s.state.Get(ctx, traceID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode state %s: %w", key, err)
	}
	return true, nil
}

// setState marshals and writes a scoped state value.
func (s *Service) setState(ctx context.Context, traceID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", key, err)
	}
	if err := s.state.Set(ctx, traceID, key, data); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}

// markerSet reports whether a boolean progress marker has been persisted.
func (s *Service) markerSet(ctx context.Context, traceID, key string) (bool, error) {
	var set bool
	found, err := s.getState(ctx, traceID, key, &set)
	if err != nil {
		return false, err
	}
	return found && set, nil
}

// setMarker persists a boolean progress marker.
func (s *Service) setMarker(ctx context.Context, traceID, key string) error {
	return s.setState(ctx, traceID, key, true)
}

// Ensure Service implements ResearchService
var _ interfaces.ResearchService = (*Service)(nil)
