// Package symbols extracts candidate ticker symbols from free-text queries
// using tiered matching against externally managed mapping tables.
package symbols

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
)

const DefaultCacheTTL = time.Hour

// symbolPattern matches ticker-shaped uppercase tokens, including class
// suffixes (BRK.B) and exchange prefixes (ASML:AMS).
var symbolPattern = regexp.MustCompile(`\b[A-Z0-9]{1,5}(?:\.[A-Z]{1,2})?(?::[A-Z]{2,4})?\b`)

// Extractor implements tiered symbol extraction with a TTL cache over the
// mapping tables.
type Extractor struct {
	source   Source
	cacheTTL time.Duration
	logger   *common.Logger
	now      func() time.Time

	mu       sync.Mutex
	cached   *tables
	loadedAt time.Time
}

// tables is the lookup-ready form of the mapping Tables.
type tables struct {
	companies    map[string]string
	knownTickers map[string]struct{}
	commonWords  map[string]struct{}
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithCacheTTL sets how long loaded tables remain valid
func WithCacheTTL(ttl time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if ttl > 0 {
			e.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an extractor over a mapping source
func NewExtractor(source Source, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		source:   source,
		cacheTTL: DefaultCacheTTL,
		logger:   common.NewSilentLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns candidate symbols for a query using three tiers: company
// name substring matches, then allow-listed ticker tokens, then all
// ticker-shaped tokens minus the common-word deny-list. Each tier short
// circuits the ones below it.
func (e *Extractor) Extract(ctx context.Context, query string) ([]string, error) {
	t := e.loadTables(ctx)
	upper := strings.ToUpper(query)

	var companyMatches []string
	seen := make(map[string]struct{})
	for name, ticker := range t.companies {
		if strings.Contains(upper, name) {
			if _, dup := seen[ticker]; !dup {
				seen[ticker] = struct{}{}
				companyMatches = append(companyMatches, ticker)
			}
		}
	}
	if len(companyMatches) > 0 {
		return companyMatches, nil
	}

	matches := symbolPattern.FindAllString(upper, -1)

	var known []string
	for _, m := range matches {
		if _, ok := t.knownTickers[m]; ok {
			known = append(known, m)
		}
	}
	if len(known) > 0 {
		return dedupe(known), nil
	}

	var candidates []string
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		if _, common := t.commonWords[m]; common {
			continue
		}
		candidates = append(candidates, m)
	}
	return dedupe(candidates), nil
}

// Refresh drops the cached tables and reloads them from the source
func (e *Extractor) Refresh(ctx context.Context) error {
	raw, err := e.source.Load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.cached = indexTables(raw)
	e.loadedAt = e.now()
	e.mu.Unlock()
	return nil
}

// AddCompanyMapping persists a mapping through the source and invalidates
// the cache so the next extraction sees it.
func (e *Extractor) AddCompanyMapping(ctx context.Context, companyName, ticker string) error {
	if err := e.source.AddCompanyMapping(ctx, companyName, ticker); err != nil {
		return err
	}

	e.mu.Lock()
	e.cached = nil
	e.mu.Unlock()
	return nil
}

// loadTables returns the cached tables, reloading on expiry. A reload
// failure yields empty tables so extraction degrades instead of erroring.
func (e *Extractor) loadTables(ctx context.Context) *tables {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cached != nil && e.now().Sub(e.loadedAt) < e.cacheTTL {
		return e.cached
	}

	raw, err := e.source.Load(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to load symbol mappings, using empty tables")
		e.cached = &tables{
			companies:    map[string]string{},
			knownTickers: map[string]struct{}{},
			commonWords:  map[string]struct{}{},
		}
	} else {
		e.cached = indexTables(raw)
	}
	e.loadedAt = e.now()
	return e.cached
}

func indexTables(raw *Tables) *tables {
	t := &tables{
		companies:    make(map[string]string, len(raw.Companies)),
		knownTickers: make(map[string]struct{}, len(raw.KnownTickers)),
		commonWords:  make(map[string]struct{}, len(raw.CommonWords)),
	}
	for _, c := range raw.Companies {
		t.companies[strings.ToUpper(c.Name)] = strings.ToUpper(c.Ticker)
	}
	for _, k := range raw.KnownTickers {
		t.knownTickers[strings.ToUpper(k)] = struct{}{}
	}
	for _, w := range raw.CommonWords {
		t.commonWords[strings.ToUpper(w)] = struct{}{}
	}
	return t
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Ensure Extractor implements SymbolExtractor
var _ interfaces.SymbolExtractor = (*Extractor)(nil)
