package research

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
)

// handleAnalysisFanOut runs the general analysis synchronously as the seed,
// then dispatches the four specialized analyses concurrently. Every kind
// publishes exactly one completion signal, with a nil artifact on failure,
// so the fan-in coordinator can always account for the full cardinality.
func (s *Service) handleAnalysisFanOut(ctx context.Context, ev events.Event) error {
	completion, ok := ev.Payload.(models.ResponseCompletion)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}

	if completion.Response == nil {
		s.logger.Error().Str("trace_id", ev.TraceID).Msg("No combined response available for analysis")
		for _, cfg := range models.AnalysisKinds {
			s.publishAnalysisCompletion(ctx, ev.TraceID, completion.Query, cfg, nil, "no combined response available")
		}
		return nil
	}

	s.logger.Info().Str("trace_id", ev.TraceID).Msg("Starting general analysis and specialized fan-out")

	// Seed analysis first: the specialized analyses are dispatched only
	// after the general artifact is persisted.
	s.runAnalysis(ctx, ev.TraceID, models.AnalysisKinds[0], completion)

	var wg sync.WaitGroup
	for _, cfg := range models.AnalysisKinds[1:] {
		wg.Add(1)
		go func(cfg models.AnalysisKindConfig) {
			defer wg.Done()
			s.runAnalysis(ctx, ev.TraceID, cfg, completion)
		}(cfg)
	}
	wg.Wait()
	return nil
}

// runAnalysis produces, persists, and announces one analysis kind.
func (s *Service) runAnalysis(ctx context.Context, traceID string, cfg models.AnalysisKindConfig, completion models.ResponseCompletion) {
	text, err := s.ai.Complete(ctx, systemPrompt(cfg.Kind), userPrompt(cfg.Kind, completion.Query, completion.Response))
	if err != nil {
		s.logger.Error().Err(err).
			Str("trace_id", traceID).
			Str("kind", string(cfg.Kind)).
			Msg("Analysis failed")
		s.publishAnalysisCompletion(ctx, traceID, completion.Query, cfg, nil, err.Error())
		return
	}

	artifact := &models.AnalysisArtifact{
		Kind:             cfg.Kind,
		Summary:          extractSummary(text),
		DetailedAnalysis: text,
		Timestamp:        s.now().UTC(),
	}

	if err := s.setState(ctx, traceID, cfg.StateKey, artifact); err != nil {
		s.logger.Error().Err(err).
			Str("trace_id", traceID).
			Str("kind", string(cfg.Kind)).
			Msg("Failed to persist analysis artifact")
		s.publishAnalysisCompletion(ctx, traceID, completion.Query, cfg, nil, err.Error())
		return
	}

	s.logger.Info().Str("trace_id", traceID).Str("kind", string(cfg.Kind)).Msg("Analysis completed")
	s.publishAnalysisCompletion(ctx, traceID, completion.Query, cfg, artifact, "")
}

func (s *Service) publishAnalysisCompletion(ctx context.Context, traceID, query string, cfg models.AnalysisKindConfig, artifact *models.AnalysisArtifact, errMsg string) {
	s.bus.Publish(ctx, events.Event{
		Topic:   cfg.Topic,
		TraceID: traceID,
		Payload: models.AnalysisCompletion{
			Query:     query,
			Kind:      cfg.Kind,
			Timestamp: s.now().UTC(),
			Artifact:  artifact,
			Error:     errMsg,
		},
	})
}
