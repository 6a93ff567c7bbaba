package research

import (
	"context"
	"fmt"

	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
)

// handleAnalysisCompleted is the fan-in rendezvous. Each completion signal
// re-reads the recorded artifacts from state and builds the comprehensive
// report only when the recorded-kind count reaches the expected cardinality.
// Duplicate and late signals are absorbed by the coordination marker and the
// count check; arrival order is irrelevant because the persisted artifacts,
// not the signals, are the source of truth.
func (s *Service) handleAnalysisCompleted(ctx context.Context, ev events.Event) error {
	completion, ok := ev.Payload.(models.AnalysisCompletion)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}

	done, err := s.markerSet(ctx, ev.TraceID, keyCoordinationCompleted)
	if err != nil {
		return err
	}
	if done {
		s.logger.Info().Str("trace_id", ev.TraceID).Msg("Coordination already completed, skipping")
		return nil
	}

	// Record the delivered artifact before counting, in case the producer's
	// own persist was lost to redelivery.
	if completion.Artifact != nil {
		if cfg := models.KindConfig(completion.Kind); cfg != nil {
			if err := s.setState(ctx, ev.TraceID, cfg.StateKey, completion.Artifact); err != nil {
				return err
			}
		}
	}

	artifacts := make(map[models.AnalysisKind]*models.AnalysisArtifact)
	for _, cfg := range models.AnalysisKinds {
		var artifact models.AnalysisArtifact
		found, err := s.getState(ctx, ev.TraceID, cfg.StateKey, &artifact)
		if err != nil {
			return err
		}
		if found {
			artifacts[cfg.Kind] = &artifact
		}
	}

	if len(artifacts) == 0 {
		s.logger.Warn().Str("trace_id", ev.TraceID).Msg("No analyses recorded yet, cannot build report")
		return nil
	}
	if len(artifacts) < models.ExpectedAnalysisCount {
		s.logger.Debug().
			Str("trace_id", ev.TraceID).
			Int("recorded", len(artifacts)).
			Int("expected", models.ExpectedAnalysisCount).
			Msg("Waiting for remaining analyses")
		return nil
	}

	// Re-check the marker: another delivery may have built the report while
	// this one was gathering artifacts. A narrow race remains under the
	// store's read-then-write marker discipline; redundant writes of the
	// identical deterministic report are accepted.
	done, err = s.markerSet(ctx, ev.TraceID, keyCoordinationCompleted)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	s.logger.Info().Str("trace_id", ev.TraceID).Msg("All analyses complete, building comprehensive report")

	var query string
	if _, err := s.getState(ctx, ev.TraceID, keyOriginalQuery, &query); err != nil {
		return err
	}

	report := buildComprehensiveReport(artifacts, s.now().UTC())
	timestamp := s.now().UTC()

	if err := s.setState(ctx, ev.TraceID, keyComprehensiveAnalysis, report); err != nil {
		return err
	}
	if err := s.setState(ctx, ev.TraceID, keyComprehensiveResults, models.QueryResult{
		Query:       query,
		Timestamp:   timestamp,
		Report:      report,
		Status:      models.WorkflowCompleted,
		CompletedAt: timestamp,
	}); err != nil {
		return err
	}
	if err := s.setState(ctx, ev.TraceID, keyQueryResult, models.QueryResult{
		Query:     query,
		Timestamp: timestamp,
		Report:    report,
		Status:    models.WorkflowCompleted,
	}); err != nil {
		return err
	}
	if err := s.setMarker(ctx, ev.TraceID, keyCoordinationCompleted); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.Event{
		Topic:   TopicComprehensiveComplete,
		TraceID: ev.TraceID,
		Payload: models.ComprehensiveCompletion{
			Query:  query,
			Report: report,
			Status: "success",
		},
	})
	return nil
}
