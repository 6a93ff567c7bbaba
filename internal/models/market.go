package models

import (
	"fmt"
	"time"
)

// StockData is the price snapshot field group of a symbol record.
type StockData struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	Volume    int64   `json:"volume"`
	MarketCap float64 `json:"marketCap"`
	PERatio   float64 `json:"peRatio"`
	Dividend  float64 `json:"dividend"`
}

// QuoteSummary carries the valuation enrichment fields fetched separately
// from the price snapshot.
type QuoteSummary struct {
	MarketCap float64 `json:"marketCap"`
	PERatio   float64 `json:"peRatio"`
	Dividend  float64 `json:"dividend"`
}

// AnalystRecommendation aggregates analyst rating counts and the mean target.
type AnalystRecommendation struct {
	Buy         int     `json:"buy"`
	Hold        int     `json:"hold"`
	Sell        int     `json:"sell"`
	TargetPrice float64 `json:"targetPrice"`
}

// CompanyInfo is the company profile field group.
type CompanyInfo struct {
	Name         string `json:"name"`
	Sector       string `json:"sector"`
	Employees    int    `json:"employees"`
	Founded      int    `json:"founded"`
	Headquarters string `json:"headquarters"`
}

// CompanyNews is one news item for a symbol.
type CompanyNews struct {
	Title  string `json:"title"`
	Date   string `json:"date"` // ISO 8601
	Source string `json:"source"`
	URL    string `json:"url"`
}

// SymbolRecord is the fully resolved market data for one symbol.
// Every field group is always populated — failed lookups degrade to the
// defaults below, never to absent fields.
type SymbolRecord struct {
	Symbol          string                `json:"symbol"`
	StockData       StockData             `json:"stockData"`
	Recommendations AnalystRecommendation `json:"analystRecommendations"`
	CompanyInfo     CompanyInfo           `json:"companyInfo"`
	RecentNews      []CompanyNews         `json:"recentNews"`
	Error           string                `json:"error,omitempty"`
}

// DefaultStockData returns the zero-valued price snapshot for a symbol.
func DefaultStockData(symbol string) StockData {
	return StockData{Symbol: symbol}
}

// DefaultCompanyInfo returns the sentinel profile for a symbol.
func DefaultCompanyInfo(symbol string) CompanyInfo {
	return CompanyInfo{
		Name:         fmt.Sprintf("%s Corporation", symbol),
		Sector:       "Unknown",
		Headquarters: "Unknown",
	}
}

// PlaceholderNews returns the single synthesized news item used when every
// news source came back empty.
func PlaceholderNews(symbol string, now time.Time) []CompanyNews {
	return []CompanyNews{{
		Title:  fmt.Sprintf("%s Recent News", symbol),
		Date:   now.UTC().Format(time.RFC3339),
		Source: "Financial Times",
		URL:    fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", symbol),
	}}
}

// DefaultSymbolRecord returns the fully defaulted record for a symbol,
// used when every upstream source failed.
func DefaultSymbolRecord(symbol string, now time.Time) *SymbolRecord {
	return &SymbolRecord{
		Symbol:      symbol,
		StockData:   DefaultStockData(symbol),
		CompanyInfo: DefaultCompanyInfo(symbol),
		RecentNews:  PlaceholderNews(symbol, now),
	}
}
