package symbols

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() *StaticSource {
	return &StaticSource{
		Tables: &Tables{
			Companies: []CompanyMapping{
				{Name: "APPLE", Ticker: "AAPL"},
				{Name: "MICROSOFT", Ticker: "MSFT"},
				{Name: "FACEBOOK", Ticker: "META"},
				{Name: "META", Ticker: "META"},
			},
			KnownTickers: []string{"AAPL", "MSFT", "META", "TSLA", "BRK.B"},
			CommonWords:  []string{"THE", "CEO", "SAID", "WOW", "WHAT", "IS", "DOING", "STOCK", "LIKE"},
		},
	}
}

func TestExtract_CompanyNameTier(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "I like APPLE stock")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestExtract_CompanyNameCaseInsensitive(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "how is apple doing against microsoft")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestExtract_CompanyNamesDedupeTicker(t *testing.T) {
	e := NewExtractor(testSource())

	// FACEBOOK and META both map to META
	symbols, err := e.Extract(context.Background(), "compare FACEBOOK and META")
	require.NoError(t, err)
	assert.Equal(t, []string{"META"}, symbols)
}

func TestExtract_KnownTickerTier(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "What is AAPL doing")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestExtract_ClassShareTicker(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "thoughts on BRK.B")
	require.NoError(t, err)
	assert.Equal(t, []string{"BRK.B"}, symbols)
}

func TestExtract_DenyListFiltersEverything(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "THE CEO SAID WOW")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestExtract_FallbackTierKeepsUnknownTokens(t *testing.T) {
	e := NewExtractor(testSource())

	symbols, err := e.Extract(context.Background(), "what is PLTR doing")
	require.NoError(t, err)
	assert.Equal(t, []string{"PLTR"}, symbols)
}

func TestExtract_FallbackDropsSingleCharTokens(t *testing.T) {
	e := NewExtractor(&StaticSource{Tables: &Tables{
		CommonWords: []string{"WHAT"},
	}})

	symbols, err := e.Extract(context.Background(), "what is X")
	require.NoError(t, err)
	assert.Equal(t, []string{"IS"}, symbols)
}

type failingSource struct{}

func (f *failingSource) Load(_ context.Context) (*Tables, error) {
	return nil, assert.AnError
}

func (f *failingSource) AddCompanyMapping(_ context.Context, _, _ string) error {
	return assert.AnError
}

func TestExtract_SourceFailureYieldsEmptyTables(t *testing.T) {
	e := NewExtractor(&failingSource{})

	symbols, err := e.Extract(context.Background(), "I like APPLE stock")
	require.NoError(t, err)
	// With empty tables every tier misses except the raw-token fallback.
	assert.ElementsMatch(t, []string{"LIKE", "APPLE", "STOCK"}, symbols)
}

func TestExtract_CacheExpiryReloads(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	loads := 0
	src := &countingSource{inner: testSource(), loads: &loads}

	e := NewExtractor(src,
		WithCacheTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)

	_, err := e.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	current = current.Add(2 * time.Hour)
	_, err = e.Extract(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

type countingSource struct {
	inner Source
	loads *int
}

func (c *countingSource) Load(ctx context.Context) (*Tables, error) {
	*c.loads++
	return c.inner.Load(ctx)
}

func (c *countingSource) AddCompanyMapping(ctx context.Context, name, ticker string) error {
	return c.inner.AddCompanyMapping(ctx, name, ticker)
}

func TestFileSource_SeedsDefaultsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbol-mappings.toml")
	src := NewFileSource(path)

	tables, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, tables.Companies)
	require.NotEmpty(t, tables.KnownTickers)

	require.NoError(t, src.AddCompanyMapping(context.Background(), "palantir", "pltr"))

	reloaded, err := src.Load(context.Background())
	require.NoError(t, err)

	found := false
	for _, c := range reloaded.Companies {
		if c.Name == "PALANTIR" {
			found = true
			assert.Equal(t, "PLTR", c.Ticker)
		}
	}
	assert.True(t, found, "expected PALANTIR mapping to persist")
	assert.Contains(t, reloaded.KnownTickers, "PLTR")
}

func TestAddCompanyMapping_InvalidatesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbol-mappings.toml")
	e := NewExtractor(NewFileSource(path))

	_, err := e.Extract(context.Background(), "warm the cache")
	require.NoError(t, err)

	require.NoError(t, e.AddCompanyMapping(context.Background(), "PALANTIR", "PLTR"))

	symbols, err := e.Extract(context.Background(), "I like PALANTIR a lot")
	require.NoError(t, err)
	assert.Equal(t, []string{"PLTR"}, symbols)
}
