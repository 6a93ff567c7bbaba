// Package interfaces defines service contracts for Finsight
package interfaces

import (
	"context"

	"github.com/bobmcallan/finsight/internal/models"
)

// SymbolExtractor turns a free-text query into candidate ticker symbols.
type SymbolExtractor interface {
	// Extract returns the deduplicated candidate symbols for a query.
	// An empty result is a valid outcome, not an error.
	Extract(ctx context.Context, query string) ([]string, error)

	// Refresh invalidates the cached mapping tables and reloads them
	Refresh(ctx context.Context) error

	// AddCompanyMapping persists a company-name to ticker mapping and
	// invalidates the cache
	AddCompanyMapping(ctx context.Context, companyName, ticker string) error
}

// MarketDataResolver resolves full symbol records with source fallback.
type MarketDataResolver interface {
	// Resolve retrieves the record for one symbol. It never returns an
	// error: every failure path degrades to the defaulted record.
	Resolve(ctx context.Context, symbol string) *models.SymbolRecord

	// ResolveAll resolves all symbols concurrently. Individual failures
	// do not abort siblings; the failed count is reported for observability.
	ResolveAll(ctx context.Context, symbols []string) (records []*models.SymbolRecord, failed int)
}

// ResearchService runs the research workflow and serves results.
type ResearchService interface {
	// SubmitQuery starts the workflow for a query under the given trace ID
	SubmitQuery(ctx context.Context, traceID, query string) error

	// GetResult returns the persisted result for a trace ID, preferring the
	// most specific stored representation. Returns ErrResultNotFound while
	// the workflow is incomplete.
	GetResult(ctx context.Context, traceID string) (*models.QueryResult, error)

	// GetStatus returns the terminal workflow status for a trace ID, if any
	GetStatus(ctx context.Context, traceID string) (*models.WorkflowStatus, error)
}
