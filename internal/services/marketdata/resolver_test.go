package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsight/internal/clients/alphavantage"
	"github.com/bobmcallan/finsight/internal/models"
)

var errSource = errors.New("source unavailable")

// mockClient is a configurable MarketDataClient for tests
type mockClient struct {
	quote   *models.StockData
	rec     *models.AnalystRecommendation
	info    *models.CompanyInfo
	news    []models.CompanyNews
	err     error
	newsErr error
}

func (m *mockClient) GetQuote(_ context.Context, _ string) (*models.StockData, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.quote, nil
}

func (m *mockClient) GetRecommendations(_ context.Context, _ string) (*models.AnalystRecommendation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.rec == nil {
		return nil, errSource
	}
	return m.rec, nil
}

func (m *mockClient) GetCompanyInfo(_ context.Context, _ string) (*models.CompanyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.info == nil {
		return nil, errSource
	}
	return m.info, nil
}

func (m *mockClient) GetNews(_ context.Context, _ string, _ int) ([]models.CompanyNews, error) {
	if m.newsErr != nil {
		return nil, m.newsErr
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.news, nil
}

type mockEnricher struct {
	summary *models.QuoteSummary
	err     error
}

func (m *mockEnricher) GetQuoteSummary(_ context.Context, _ string) (*models.QuoteSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func TestResolve_PrimaryQuoteEnriched(t *testing.T) {
	primary := &mockClient{
		quote: &models.StockData{Symbol: "AAPL", Price: 195.5, Change: 1.2, Volume: 1000},
		rec:   &models.AnalystRecommendation{Buy: 20, Hold: 5, Sell: 1, TargetPrice: 210},
		info:  &models.CompanyInfo{Name: "Apple Inc.", Sector: "Technology"},
		news:  []models.CompanyNews{{Title: "Apple launches product"}},
	}
	enricher := &mockEnricher{summary: &models.QuoteSummary{MarketCap: 3e12, PERatio: 31.5, Dividend: 0.5}}

	r := NewResolver(primary, &mockClient{err: errSource}, enricher, WithClock(fixedClock()))
	record := r.Resolve(context.Background(), "AAPL")

	assert.Equal(t, 195.5, record.StockData.Price)
	assert.Equal(t, 3e12, record.StockData.MarketCap)
	assert.Equal(t, 31.5, record.StockData.PERatio)
	assert.Equal(t, 20, record.Recommendations.Buy)
	assert.Equal(t, "Apple Inc.", record.CompanyInfo.Name)
	assert.Empty(t, record.Error)
}

func TestResolve_EnrichmentFailureKeepsPrice(t *testing.T) {
	primary := &mockClient{
		quote: &models.StockData{Symbol: "AAPL", Price: 195.5, Change: 1.2},
		rec:   &models.AnalystRecommendation{Buy: 1},
		info:  &models.CompanyInfo{Name: "Apple Inc."},
		news:  []models.CompanyNews{{Title: "n"}},
	}
	enricher := &mockEnricher{err: errSource}

	r := NewResolver(primary, &mockClient{err: errSource}, enricher)
	record := r.Resolve(context.Background(), "AAPL")

	assert.Equal(t, 195.5, record.StockData.Price)
	assert.Zero(t, record.StockData.MarketCap)
	assert.Zero(t, record.StockData.PERatio)
	assert.Zero(t, record.StockData.Dividend)
	assert.Empty(t, record.Error)
}

func TestResolve_PrimaryFailureFallsToSecondary(t *testing.T) {
	secondary := &mockClient{
		quote: &models.StockData{Symbol: "MSFT", Price: 420.1, MarketCap: 3.1e12, PERatio: 35},
		rec:   &models.AnalystRecommendation{Buy: 30},
		info:  &models.CompanyInfo{Name: "Microsoft Corporation", Sector: "Technology"},
		news:  []models.CompanyNews{{Title: "Microsoft news"}},
	}

	r := NewResolver(&mockClient{err: errSource}, secondary, nil)
	record := r.Resolve(context.Background(), "MSFT")

	assert.Equal(t, 420.1, record.StockData.Price)
	assert.Equal(t, 3.1e12, record.StockData.MarketCap)
	assert.Equal(t, 30, record.Recommendations.Buy)
	assert.Equal(t, "Microsoft Corporation", record.CompanyInfo.Name)
	assert.Empty(t, record.Error)
}

func TestResolve_FieldGroupsFallBackIndependently(t *testing.T) {
	// Primary serves quotes but nothing else; secondary serves only news.
	primary := &mockClient{quote: &models.StockData{Symbol: "TSLA", Price: 250}}
	secondary := &mockClient{
		news: []models.CompanyNews{{Title: "Tesla update"}},
	}

	r := NewResolver(primary, secondary, nil, WithClock(fixedClock()))
	record := r.Resolve(context.Background(), "TSLA")

	assert.Equal(t, 250.0, record.StockData.Price)
	assert.Equal(t, models.AnalystRecommendation{}, record.Recommendations)
	assert.Equal(t, "TSLA Corporation", record.CompanyInfo.Name)
	assert.Equal(t, "Tesla update", record.RecentNews[0].Title)
	assert.Empty(t, record.Error)
}

func TestResolve_AllSourcesFailYieldsDefaultRecord(t *testing.T) {
	r := NewResolver(&mockClient{err: errSource}, &mockClient{err: errSource}, nil, WithClock(fixedClock()))
	record := r.Resolve(context.Background(), "NVDA")

	assert.Equal(t, models.DefaultStockData("NVDA"), record.StockData)
	assert.Equal(t, models.AnalystRecommendation{}, record.Recommendations)
	assert.Equal(t, "NVDA Corporation", record.CompanyInfo.Name)
	assert.Equal(t, "Unknown", record.CompanyInfo.Sector)

	require.Len(t, record.RecentNews, 1)
	assert.Equal(t, "NVDA Recent News", record.RecentNews[0].Title)
	assert.Equal(t, "Financial Times", record.RecentNews[0].Source)
	assert.Equal(t, "https://finance.yahoo.com/quote/NVDA/news", record.RecentNews[0].URL)

	assert.NotEmpty(t, record.Error)

	// The whole record is the fully defaulted one, plus the error marker.
	expected := models.DefaultSymbolRecord("NVDA", fixedClock()())
	expected.Error = record.Error
	assert.Equal(t, expected, record)
}

func TestResolve_EmptyNewsFromBothSourcesYieldsPlaceholder(t *testing.T) {
	primary := &mockClient{
		quote: &models.StockData{Symbol: "AMD", Price: 160},
		rec:   &models.AnalystRecommendation{Buy: 10},
		info:  &models.CompanyInfo{Name: "Advanced Micro Devices"},
	}
	secondary := &mockClient{err: errSource}

	r := NewResolver(primary, secondary, nil, WithClock(fixedClock()))
	record := r.Resolve(context.Background(), "AMD")

	require.Len(t, record.RecentNews, 1)
	assert.Equal(t, "AMD Recent News", record.RecentNews[0].Title)
	assert.Empty(t, record.Error)
}

func TestResolveAll_PreservesOrderAndCountsFailures(t *testing.T) {
	primary := &mockClient{
		quote: &models.StockData{Price: 100},
		rec:   &models.AnalystRecommendation{Buy: 1},
		info:  &models.CompanyInfo{Name: "Acme"},
		news:  []models.CompanyNews{{Title: "n"}},
	}

	// ok resolves everything from primary; failing resolves nothing anywhere
	ok := NewResolver(primary, &mockClient{err: errSource}, nil)
	records, failed := ok.ResolveAll(context.Background(), []string{"AAPL", "MSFT", "TSLA"})
	require.Len(t, records, 3)
	assert.Equal(t, 0, failed)
	assert.Equal(t, "AAPL", records[0].Symbol)
	assert.Equal(t, "MSFT", records[1].Symbol)
	assert.Equal(t, "TSLA", records[2].Symbol)

	failing := NewResolver(&mockClient{err: errSource}, &mockClient{err: errSource}, nil)
	records, failed = failing.ResolveAll(context.Background(), []string{"AAPL", "MSFT"})
	require.Len(t, records, 2)
	assert.Equal(t, 2, failed)
}

func TestResolveAll_EmptyInput(t *testing.T) {
	r := NewResolver(&mockClient{}, &mockClient{}, nil)
	records, failed := r.ResolveAll(context.Background(), nil)
	assert.Nil(t, records)
	assert.Zero(t, failed)
}

func TestResolve_InvalidPrimaryPayloadFallsBackToSecondary(t *testing.T) {
	// Primary serves a quote with a non-numeric price; the client rejects it
	// and the resolver must take the secondary's quote instead.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Global Quote": {
			"01. symbol": "AAPL",
			"05. price": "NaN",
			"06. volume": "1000",
			"09. change": "0.5"
		}}`))
	}))
	defer srv.Close()

	primary := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(srv.URL))
	secondary := &mockClient{
		quote: &models.StockData{Symbol: "AAPL", Price: 187.4, Change: 0.8, Volume: 2000},
	}

	r := NewResolver(primary, secondary, nil)
	record := r.Resolve(context.Background(), "AAPL")

	assert.Equal(t, 187.4, record.StockData.Price)
	assert.Equal(t, int64(2000), record.StockData.Volume)
}
