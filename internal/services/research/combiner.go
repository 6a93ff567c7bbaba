package research

import (
	"context"
	"fmt"

	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
)

// handleStageCompletion combines web research and financial data into the
// payload that seeds the analyses. It deliberately proceeds once EITHER
// input is present: the stage completions race, and whichever arrives second
// is absorbed by the coordination marker. With only one input present the
// combined payload simply carries an empty section for the other.
func (s *Service) handleStageCompletion(ctx context.Context, ev events.Event) error {
	query, ok := stageQuery(ev.Payload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}

	done, err := s.markerSet(ctx, ev.TraceID, keyResponseCoordinated)
	if err != nil {
		return err
	}
	if done {
		s.logger.Info().Str("trace_id", ev.TraceID).Msg("Response coordination already completed, skipping")
		return nil
	}

	var searchResponse models.SearchResponse
	hasWeb, err := s.getState(ctx, ev.TraceID, keyWebSearchResults, &searchResponse)
	if err != nil {
		return err
	}

	var records []*models.SymbolRecord
	hasFinance, err := s.getState(ctx, ev.TraceID, keyFinanceData, &records)
	if err != nil {
		return err
	}

	if !hasWeb && !hasFinance {
		s.logger.Warn().Str("trace_id", ev.TraceID).Msg("Neither web search nor finance data available, skipping coordination")
		return nil
	}

	combined := &models.CombinedResponse{
		Query:         query,
		Summary:       fmt.Sprintf("Results for %q", query),
		WebResources:  searchResponse.Results,
		FinancialData: buildFinancialSummaries(records),
	}

	completion := models.ResponseCompletion{
		Query:     query,
		Timestamp: s.now().UTC(),
		Response:  combined,
	}

	if err := s.setState(ctx, ev.TraceID, keyResponseData, completion); err != nil {
		return err
	}
	if err := s.setMarker(ctx, ev.TraceID, keyResponseCoordinated); err != nil {
		return err
	}

	s.logger.Info().Str("trace_id", ev.TraceID).
		Bool("has_web", hasWeb).
		Bool("has_finance", hasFinance).
		Msg("Combined response built")

	s.bus.Publish(ctx, events.Event{
		Topic:   TopicResponseCompleted,
		TraceID: ev.TraceID,
		Payload: completion,
	})
	return nil
}

// stageQuery pulls the query out of either stage completion payload.
func stageQuery(payload any) (string, bool) {
	switch p := payload.(type) {
	case models.WebSearchCompletion:
		return p.Query, true
	case models.FinanceDataCompletion:
		return p.Query, true
	default:
		return "", false
	}
}
