// Package yahoo provides a client for Yahoo Finance public endpoints, the
// secondary market data source and the enrichment source for quote valuation
// fields.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second

	// Yahoo rejects requests without a browser user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client implements the MarketDataClient and QuoteEnricher interfaces
// against Yahoo Finance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo Finance API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request against a path
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("path", path).Msg("Yahoo Finance API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// quoteResponse mirrors the v7 quote endpoint.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketVolume        int64   `json:"regularMarketVolume"`
			MarketCap                  float64 `json:"marketCap"`
			TrailingPE                 float64 `json:"trailingPE"`
			TrailingAnnualDividendRate float64 `json:"trailingAnnualDividendYield"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuote retrieves the full price snapshot for a symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.StockData, error) {
	params := url.Values{}
	params.Set("symbols", symbol)

	var resp quoteResponse
	if err := c.get(ctx, "/v7/finance/quote", params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote lookup failed for %s: %s", symbol, resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data for symbol %s", symbol)
	}

	r := resp.QuoteResponse.Result[0]
	if !validNumber(r.RegularMarketPrice) || !validNumber(r.RegularMarketChange) {
		return nil, fmt.Errorf("invalid quote numerics for symbol %s", symbol)
	}

	return &models.StockData{
		Symbol:    symbol,
		Price:     r.RegularMarketPrice,
		Change:    r.RegularMarketChange,
		Volume:    r.RegularMarketVolume,
		MarketCap: r.MarketCap,
		PERatio:   r.TrailingPE,
		Dividend:  r.TrailingAnnualDividendRate * 100,
	}, nil
}

// quoteSummaryResponse mirrors the v10 quoteSummary endpoint for the modules
// this client requests.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				MarketCap     rawNumber `json:"marketCap"`
				TrailingPE    rawNumber `json:"trailingPE"`
				DividendYield rawNumber `json:"dividendYield"`
			} `json:"summaryDetail"`
			RecommendationTrend *struct {
				Trend []struct {
					Period     string `json:"period"`
					StrongBuy  int    `json:"strongBuy"`
					Buy        int    `json:"buy"`
					Hold       int    `json:"hold"`
					Sell       int    `json:"sell"`
					StrongSell int    `json:"strongSell"`
				} `json:"trend"`
			} `json:"recommendationTrend"`
			FinancialData *struct {
				TargetMeanPrice rawNumber `json:"targetMeanPrice"`
			} `json:"financialData"`
			AssetProfile *struct {
				LongName          string `json:"longName"`
				Sector            string `json:"sector"`
				FullTimeEmployees int    `json:"fullTimeEmployees"`
				City              string `json:"city"`
				Country           string `json:"country"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawNumber handles Yahoo's wrapped numbers, which arrive either bare or as
// {"raw": 1.23, "fmt": "1.23"}.
type rawNumber struct {
	Value float64
}

func (n *rawNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "{}" {
		return nil
	}
	if strings.HasPrefix(s, "{") {
		var wrapped struct {
			Raw float64 `json:"raw"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		n.Value = wrapped.Raw
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %q", s)
	}
	n.Value = v
	return nil
}

func (c *Client) quoteSummary(ctx context.Context, symbol string, modules string, resp *quoteSummaryResponse) error {
	params := url.Values{}
	params.Set("modules", modules)

	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), params, resp); err != nil {
		return err
	}
	if resp.QuoteSummary.Error != nil {
		return fmt.Errorf("quote summary failed for %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return fmt.Errorf("no quote summary for symbol %s", symbol)
	}
	return nil
}

// GetQuoteSummary retrieves the valuation fields used to enrich primary
// quotes. Dividend yield is converted to a percentage.
func (c *Client) GetQuoteSummary(ctx context.Context, symbol string) (*models.QuoteSummary, error) {
	var resp quoteSummaryResponse
	if err := c.quoteSummary(ctx, symbol, "summaryDetail", &resp); err != nil {
		return nil, err
	}

	detail := resp.QuoteSummary.Result[0].SummaryDetail
	if detail == nil {
		return nil, fmt.Errorf("no summary detail for symbol %s", symbol)
	}

	return &models.QuoteSummary{
		MarketCap: detail.MarketCap.Value,
		PERatio:   detail.TrailingPE.Value,
		Dividend:  detail.DividendYield.Value * 100,
	}, nil
}

// GetRecommendations retrieves the current analyst recommendation trend.
// Strong buys fold into buys and strong sells into sells.
func (c *Client) GetRecommendations(ctx context.Context, symbol string) (*models.AnalystRecommendation, error) {
	var resp quoteSummaryResponse
	if err := c.quoteSummary(ctx, symbol, "recommendationTrend,financialData", &resp); err != nil {
		return nil, err
	}

	result := resp.QuoteSummary.Result[0]
	if result.RecommendationTrend == nil || len(result.RecommendationTrend.Trend) == 0 {
		return nil, fmt.Errorf("no recommendation trend for symbol %s", symbol)
	}

	trend := result.RecommendationTrend.Trend[0]
	rec := &models.AnalystRecommendation{
		Buy:  trend.StrongBuy + trend.Buy,
		Hold: trend.Hold,
		Sell: trend.Sell + trend.StrongSell,
	}
	if result.FinancialData != nil {
		rec.TargetPrice = result.FinancialData.TargetMeanPrice.Value
	}
	return rec, nil
}

// GetCompanyInfo retrieves the company profile for a symbol
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	var resp quoteSummaryResponse
	if err := c.quoteSummary(ctx, symbol, "assetProfile", &resp); err != nil {
		return nil, err
	}

	profile := resp.QuoteSummary.Result[0].AssetProfile
	if profile == nil || profile.LongName == "" {
		return nil, fmt.Errorf("no asset profile for symbol %s", symbol)
	}

	info := &models.CompanyInfo{
		Name:      profile.LongName,
		Sector:    profile.Sector,
		Employees: profile.FullTimeEmployees,
	}
	if info.Sector == "" {
		info.Sector = "Unknown"
	}
	switch {
	case profile.City != "" && profile.Country != "":
		info.Headquarters = profile.City + ", " + profile.Country
	case profile.City != "":
		info.Headquarters = profile.City
	default:
		info.Headquarters = "Unknown"
	}
	return info, nil
}

// searchResponse mirrors the v1 search endpoint.
type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// GetNews retrieves recent news for a symbol
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.CompanyNews, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("newsCount", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.get(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.News) == 0 {
		return nil, nil
	}

	count := len(resp.News)
	if count > limit {
		count = limit
	}
	news := make([]models.CompanyNews, 0, count)
	for _, item := range resp.News[:count] {
		news = append(news, models.CompanyNews{
			Title:  item.Title,
			Date:   time.Unix(item.ProviderPublishTime, 0).UTC().Format(time.RFC3339),
			Source: item.Publisher,
			URL:    item.Link,
		})
	}
	return news, nil
}

// Ensure Client implements the client interfaces
var (
	_ interfaces.MarketDataClient = (*Client)(nil)
	_ interfaces.QuoteEnricher    = (*Client)(nil)
)
