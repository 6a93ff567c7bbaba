// Package interfaces defines service contracts for Finsight
package interfaces

import (
	"context"

	"github.com/bobmcallan/finsight/internal/models"
)

// MarketDataClient provides access to one market data source. Both the
// primary and secondary providers implement this contract so the resolver
// can fall back between them per field group.
type MarketDataClient interface {
	// GetQuote retrieves the price snapshot for a symbol
	GetQuote(ctx context.Context, symbol string) (*models.StockData, error)

	// GetCompanyInfo retrieves the company profile for a symbol
	GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error)

	// GetRecommendations retrieves analyst recommendation counts for a symbol
	GetRecommendations(ctx context.Context, symbol string) (*models.AnalystRecommendation, error)

	// GetNews retrieves recent news for a symbol
	GetNews(ctx context.Context, symbol string, limit int) ([]models.CompanyNews, error)
}

// QuoteEnricher supplies the valuation fields (market cap, P/E, dividend)
// used to enrich a primary-source price snapshot.
type QuoteEnricher interface {
	// GetQuoteSummary retrieves valuation enrichment fields for a symbol
	GetQuoteSummary(ctx context.Context, symbol string) (*models.QuoteSummary, error)
}

// AIClient provides access to the AI analysis provider.
type AIClient interface {
	// Complete generates analysis text from a system and user prompt
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SearchClient provides access to the web search provider.
type SearchClient interface {
	// Search runs a web search and returns ranked results
	Search(ctx context.Context, query string) ([]models.WebSearchResult, error)
}
