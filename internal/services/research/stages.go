package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/models"
)

// handleWebResearch runs the web search stage for a received query. Faults
// degrade to an empty completion signal so the combiner always hears from
// this stage.
func (s *Service) handleWebResearch(ctx context.Context, ev events.Event) error {
	submission, ok := ev.Payload.(QuerySubmission)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}
	query := submission.Query

	if err := s.setState(ctx, ev.TraceID, keyOriginalQuery, query); err != nil {
		s.logger.Warn().Err(err).Str("trace_id", ev.TraceID).Msg("Failed to persist original query")
	}

	results, err := s.search.Search(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("trace_id", ev.TraceID).Msg("Web search failed")
		s.bus.Publish(ctx, events.Event{
			Topic:   TopicWebSearchCompleted,
			TraceID: ev.TraceID,
			Payload: models.WebSearchCompletion{
				Query:         query,
				ResultCount:   0,
				ResultSummary: "Search failed",
			},
		})
		return nil
	}

	response := models.SearchResponse{Results: results, Success: true}
	if err := s.setState(ctx, ev.TraceID, keyWebSearchResults, response); err != nil {
		return err
	}

	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}

	s.logger.Info().Str("trace_id", ev.TraceID).Int("results", len(results)).Msg("Web search completed")
	s.bus.Publish(ctx, events.Event{
		Topic:   TopicWebSearchCompleted,
		TraceID: ev.TraceID,
		Payload: models.WebSearchCompletion{
			Query:         query,
			ResultCount:   len(results),
			ResultSummary: strings.Join(titles, ", "),
			Results:       results,
		},
	})
	return nil
}

// handleDataAggregation runs the financial data stage for a received query.
// A query with no extractable symbols is a valid terminal outcome for this
// stage, reported through the completion summary.
func (s *Service) handleDataAggregation(ctx context.Context, ev events.Event) error {
	submission, ok := ev.Payload.(QuerySubmission)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", ev.Topic, ev.Payload)
	}
	query := submission.Query

	symbols, err := s.extractor.Extract(ctx, query)
	if err != nil {
		s.logger.Error().Err(err).Str("trace_id", ev.TraceID).Msg("Symbol extraction failed")
		s.publishFinanceCompletion(ctx, ev.TraceID, models.FinanceDataCompletion{
			Query:         query,
			ResultSummary: "Failed to retrieve finance data",
		})
		return nil
	}

	if len(symbols) == 0 {
		s.logger.Info().Str("trace_id", ev.TraceID).Msg("No stock symbols found in query")
		s.publishFinanceCompletion(ctx, ev.TraceID, models.FinanceDataCompletion{
			Query:         query,
			Symbols:       []string{},
			ResultSummary: "No stock symbols identified in the query",
		})
		return nil
	}

	records, failed := s.resolver.ResolveAll(ctx, symbols)
	if failed > 0 {
		s.logger.Warn().Str("trace_id", ev.TraceID).Int("failed", failed).Msg("Some symbols resolved to defaults")
	}

	if err := s.setState(ctx, ev.TraceID, keyFinanceData, records); err != nil {
		return err
	}

	s.logger.Info().Str("trace_id", ev.TraceID).Int("symbols", len(symbols)).Msg("Finance data aggregation completed")
	s.publishFinanceCompletion(ctx, ev.TraceID, models.FinanceDataCompletion{
		Query:         query,
		Symbols:       symbols,
		ResultCount:   len(records),
		FailedCount:   failed,
		ResultSummary: fmt.Sprintf("Retrieved data for %s", strings.Join(symbols, ", ")),
	})
	return nil
}

func (s *Service) publishFinanceCompletion(ctx context.Context, traceID string, payload models.FinanceDataCompletion) {
	s.bus.Publish(ctx, events.Event{
		Topic:   TopicFinanceDataCompleted,
		TraceID: traceID,
		Payload: payload,
	})
}
