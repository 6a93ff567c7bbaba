// Package alphavantage provides a client for the Alpha Vantage API,
// the primary market data source.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co/query"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the MarketDataClient interface for Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// get performs a rate-limited GET request for an API function
func (c *Client) get(ctx context.Context, function string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", function).Msg("Alpha Vantage API request")

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
			Function:   function,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// globalQuote mirrors the GLOBAL_QUOTE response. All numeric fields arrive
// as strings.
type globalQuote struct {
	Quote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
		Volume string `json:"06. volume"`
		Change string `json:"09. change"`
	} `json:"Global Quote"`
}

// parseNumeric parses a numeric field, rejecting NaN and infinities so a
// semantically invalid payload triggers source fallback.
func parseNumeric(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric field %s: %q", field, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid numeric field %s: %v", field, v)
	}
	return v, nil
}

// GetQuote retrieves the price snapshot for a symbol. The valuation fields
// (market cap, P/E, dividend) are not served by this endpoint and are left
// zero for the caller to enrich.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.StockData, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp globalQuote
	if err := c.get(ctx, "GLOBAL_QUOTE", params, &resp); err != nil {
		return nil, err
	}

	if resp.Quote.Symbol == "" {
		return nil, fmt.Errorf("no quote data for symbol %s", symbol)
	}

	price, err := parseNumeric("price", resp.Quote.Price)
	if err != nil {
		return nil, err
	}
	change, err := parseNumeric("change", resp.Quote.Change)
	if err != nil {
		return nil, err
	}
	volume, err := strconv.ParseInt(resp.Quote.Volume, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric field volume: %q", resp.Quote.Volume)
	}

	return &models.StockData{
		Symbol: symbol,
		Price:  price,
		Change: change,
		Volume: volume,
	}, nil
}

// companyOverview mirrors the OVERVIEW response.
type companyOverview struct {
	Name              string `json:"Name"`
	Sector            string `json:"Sector"`
	FullTimeEmployees string `json:"FullTimeEmployees"`
	IPOYear           string `json:"IPOYear"`
	Address           string `json:"Address"`
}

// GetCompanyInfo retrieves the company profile for a symbol
func (c *Client) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp companyOverview
	if err := c.get(ctx, "OVERVIEW", params, &resp); err != nil {
		return nil, err
	}

	if resp.Name == "" {
		return nil, fmt.Errorf("no company overview for symbol %s", symbol)
	}

	info := &models.CompanyInfo{
		Name:         resp.Name,
		Sector:       resp.Sector,
		Headquarters: resp.Address,
	}
	if info.Sector == "" {
		info.Sector = "Unknown"
	}
	if info.Headquarters == "" {
		info.Headquarters = "Unknown"
	}
	if n, err := strconv.Atoi(resp.FullTimeEmployees); err == nil {
		info.Employees = n
	}
	if n, err := strconv.Atoi(resp.IPOYear); err == nil {
		info.Founded = n
	}

	return info, nil
}

// GetRecommendations is not served by Alpha Vantage; it always fails so the
// resolver falls through to the secondary source for this field group.
func (c *Client) GetRecommendations(_ context.Context, symbol string) (*models.AnalystRecommendation, error) {
	return nil, fmt.Errorf("analyst recommendations not available for %s: endpoint not supported", symbol)
}

// newsFeed mirrors the NEWS_SENTIMENT response.
type newsFeed struct {
	Feed []struct {
		Title         string `json:"title"`
		TimePublished string `json:"time_published"`
		Source        string `json:"source"`
		URL           string `json:"url"`
	} `json:"feed"`
}

// GetNews retrieves recent news for a symbol
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.CompanyNews, error) {
	params := url.Values{}
	params.Set("tickers", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var resp newsFeed
	if err := c.get(ctx, "NEWS_SENTIMENT", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Feed) == 0 {
		return nil, nil
	}

	news := make([]models.CompanyNews, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		news = append(news, models.CompanyNews{
			Title:  item.Title,
			Date:   normalizeNewsDate(item.TimePublished),
			Source: item.Source,
			URL:    item.URL,
		})
	}
	return news, nil
}

// normalizeNewsDate converts Alpha Vantage's compact timestamp
// ("20240115T093000") to ISO 8601, passing unparseable values through.
func normalizeNewsDate(raw string) string {
	t, err := time.Parse("20060102T150405", raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
