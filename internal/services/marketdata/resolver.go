// Package marketdata resolves full symbol records from layered market data
// sources, degrading to defaults instead of failing.
package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/models"
)

const (
	DefaultMaxConcurrent = 5
	DefaultNewsLimit     = 5
)

// Resolver implements MarketDataResolver over a primary source, a secondary
// fallback source, and a quote enricher for valuation fields the primary
// does not serve.
type Resolver struct {
	primary       interfaces.MarketDataClient
	secondary     interfaces.MarketDataClient
	enricher      interfaces.QuoteEnricher
	logger        *common.Logger
	now           func() time.Time
	maxConcurrent int
	newsLimit     int
}

// ResolverOption configures the resolver
type ResolverOption func(*Resolver)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMaxConcurrent caps how many symbols resolve in parallel
func WithMaxConcurrent(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxConcurrent = n
		}
	}
}

// WithNewsLimit sets how many news items to request per symbol
func WithNewsLimit(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.newsLimit = n
		}
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver over the given sources. The enricher may be
// nil, in which case primary quotes keep zero valuation fields.
func NewResolver(primary, secondary interfaces.MarketDataClient, enricher interfaces.QuoteEnricher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		primary:       primary,
		secondary:     secondary,
		enricher:      enricher,
		logger:        common.NewSilentLogger(),
		now:           time.Now,
		maxConcurrent: DefaultMaxConcurrent,
		newsLimit:     DefaultNewsLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve retrieves the record for one symbol. The four field groups fall
// back independently: a price failure does not prevent news from resolving.
// It never returns an error.
func (r *Resolver) Resolve(ctx context.Context, symbol string) *models.SymbolRecord {
	record := &models.SymbolRecord{Symbol: symbol}
	failures := 0

	record.StockData = r.resolveQuote(ctx, symbol, &failures)
	record.Recommendations = r.resolveRecommendations(ctx, symbol, &failures)
	record.CompanyInfo = r.resolveCompanyInfo(ctx, symbol, &failures)
	record.RecentNews = r.resolveNews(ctx, symbol, &failures)

	if failures == 4 {
		record = models.DefaultSymbolRecord(symbol, r.now())
		record.Error = fmt.Sprintf("market data unavailable for %s", symbol)
	}
	return record
}

func (r *Resolver) resolveQuote(ctx context.Context, symbol string, failures *int) models.StockData {
	quote, err := r.primary.GetQuote(ctx, symbol)
	if err == nil {
		r.enrichQuote(ctx, symbol, quote)
		return *quote
	}
	r.logger.Debug().Err(err).Str("symbol", symbol).Msg("Primary quote source failed, trying secondary")

	quote, err = r.secondary.GetQuote(ctx, symbol)
	if err == nil {
		return *quote
	}
	r.logger.Warn().Err(err).Str("symbol", symbol).Msg("All quote sources failed, using default")

	*failures++
	return models.DefaultStockData(symbol)
}

// enrichQuote fills the valuation fields a primary quote lacks. Enrichment
// failure leaves those fields zero without invalidating the quote.
func (r *Resolver) enrichQuote(ctx context.Context, symbol string, quote *models.StockData) {
	if r.enricher == nil {
		return
	}
	summary, err := r.enricher.GetQuoteSummary(ctx, symbol)
	if err != nil {
		r.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote enrichment failed")
		return
	}
	quote.MarketCap = summary.MarketCap
	quote.PERatio = summary.PERatio
	quote.Dividend = summary.Dividend
}

func (r *Resolver) resolveRecommendations(ctx context.Context, symbol string, failures *int) models.AnalystRecommendation {
	rec, err := r.primary.GetRecommendations(ctx, symbol)
	if err == nil {
		return *rec
	}

	rec, err = r.secondary.GetRecommendations(ctx, symbol)
	if err == nil {
		return *rec
	}
	r.logger.Warn().Err(err).Str("symbol", symbol).Msg("All recommendation sources failed, using default")

	*failures++
	return models.AnalystRecommendation{}
}

func (r *Resolver) resolveCompanyInfo(ctx context.Context, symbol string, failures *int) models.CompanyInfo {
	info, err := r.primary.GetCompanyInfo(ctx, symbol)
	if err == nil {
		return *info
	}

	info, err = r.secondary.GetCompanyInfo(ctx, symbol)
	if err == nil {
		return *info
	}
	r.logger.Warn().Err(err).Str("symbol", symbol).Msg("All profile sources failed, using default")

	*failures++
	return models.DefaultCompanyInfo(symbol)
}

func (r *Resolver) resolveNews(ctx context.Context, symbol string, failures *int) []models.CompanyNews {
	news, err := r.primary.GetNews(ctx, symbol, r.newsLimit)
	if err == nil && len(news) > 0 {
		return news
	}

	news, err = r.secondary.GetNews(ctx, symbol, r.newsLimit)
	if err == nil && len(news) > 0 {
		return news
	}
	r.logger.Warn().Err(err).Str("symbol", symbol).Msg("All news sources failed, using placeholder")

	*failures++
	return models.PlaceholderNews(symbol, r.now())
}

// ResolveAll resolves all symbols concurrently under the concurrency cap.
// Records come back in input order; failed counts records whose every field
// group fell back to defaults.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []string) ([]*models.SymbolRecord, int) {
	if len(symbols) == 0 {
		return nil, 0
	}

	records := make([]*models.SymbolRecord, len(symbols))
	sem := make(chan struct{}, r.maxConcurrent)
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records[i] = r.Resolve(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	failed := 0
	for _, record := range records {
		if record.Error != "" {
			failed++
		}
	}
	return records, failed
}

// Ensure Resolver implements MarketDataResolver
var _ interfaces.MarketDataResolver = (*Resolver)(nil)
