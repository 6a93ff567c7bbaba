package research

import (
	"context"
	"fmt"

	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
)

// handlePersistResults copies the comprehensive result to the UI and API
// read keys and records terminal workflow status. The results.saved marker
// makes redelivery a no-op; a persistence fault records a failed status
// instead of leaving the workflow without a terminal state.
func (s *Service) handlePersistResults(ctx context.Context, ev events.Event) error {
	completion, ok := ev.Payload.(models.ComprehensiveCompletion)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}

	saved, err := s.markerSet(ctx, ev.TraceID, keyResultsSaved)
	if err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}
	if saved {
		s.logger.Info().Str("trace_id", ev.TraceID).Msg("Results already saved, skipping")
		return nil
	}

	result, err := s.loadResult(ctx, ev.TraceID, completion)
	if err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}
	if result == nil {
		s.logger.Warn().Str("trace_id", ev.TraceID).Msg("No comprehensive analysis results found in state")
		return nil
	}

	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now().UTC()
	}

	if err := s.setState(ctx, ev.TraceID, keyUIResult, result); err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}
	if err := s.setState(ctx, ev.TraceID, keyAPIResult, result); err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}
	if err := s.setState(ctx, ev.TraceID, keyWorkflowStatus, models.WorkflowStatus{
		Status:      models.WorkflowCompleted,
		CompletedAt: s.now().UTC(),
	}); err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}

	if err := s.setMarker(ctx, ev.TraceID, keyResultsSaved); err != nil {
		return s.recordFailure(ctx, ev.TraceID, err)
	}

	s.logger.Info().Str("trace_id", ev.TraceID).Msg("Comprehensive analysis results saved")
	return nil
}

// loadResult reads the result from the most specific stored representation,
// falling back to reconstructing it from the completion payload.
func (s *Service) loadResult(ctx context.Context, traceID string, completion models.ComprehensiveCompletion) (*models.QueryResult, error) {
	var result models.QueryResult
	found, err := s.getState(ctx, traceID, keyComprehensiveResults, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return &result, nil
	}

	found, err = s.getState(ctx, traceID, keyQueryResult, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return &result, nil
	}

	var report models.ComprehensiveReport
	found, err = s.getState(ctx, traceID, keyComprehensiveAnalysis, &report)
	if err != nil {
		return nil, err
	}
	if !found && completion.Report == nil {
		return nil, nil
	}

	rebuilt := &models.QueryResult{
		Query:     completion.Query,
		Timestamp: s.now().UTC(),
		Report:    completion.Report,
		Status:    models.WorkflowCompleted,
	}
	if found {
		rebuilt.Report = &report
	}
	return rebuilt, nil
}

// recordFailure writes the failed terminal status. The original error is
// returned so the bus logs it.
func (s *Service) recordFailure(ctx context.Context, traceID string, cause error) error {
	if err := s.setState(ctx, traceID, keyWorkflowStatus, models.WorkflowStatus{
		Status:      models.WorkflowFailed,
		CompletedAt: s.now().UTC(),
		Error:       "Failed to save results",
	}); err != nil {
		s.logger.Error().Err(err).Str("trace_id", traceID).Msg("Failed to record failed workflow status")
	}
	return cause
}
