// Package app wires configuration, storage, clients, and services into a
// single composition root shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/finsight/internal/clients/alphavantage"
	"github.com/bobmcallan/finsight/internal/clients/gemini"
	"github.com/bobmcallan/finsight/internal/clients/serper"
	"github.com/bobmcallan/finsight/internal/clients/yahoo"
	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/events"
	"github.com/bobmcallan/finsight/internal/interfaces"
	"github.com/bobmcallan/finsight/internal/services/marketdata"
	"github.com/bobmcallan/finsight/internal/services/research"
	"github.com/bobmcallan/finsight/internal/services/symbols"
	"github.com/bobmcallan/finsight/internal/storage"
)

// App holds all initialized services and shared resources.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         *storage.Manager
	Bus             *events.InProcBus
	SymbolExtractor interfaces.SymbolExtractor
	MarketResolver  interfaces.MarketDataResolver
	ResearchService interfaces.ResearchService
	MCPServer       *server.MCPServer
	StartupTime     time.Time
}

// NewApp initializes the full application from a config path.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	avClient := alphavantage.NewClient(config.Clients.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
		alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		alphavantage.WithLogger(logger),
	)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	geminiClient, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithLogger(logger),
	)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	serperClient := serper.NewClient(config.Clients.Serper.APIKey,
		serper.WithBaseURL(config.Clients.Serper.BaseURL),
		serper.WithTimeout(config.Clients.Serper.GetTimeout()),
		serper.WithLogger(logger),
	)

	extractor := symbols.NewExtractor(symbols.NewFileSource(config.Symbols.MappingsPath),
		symbols.WithCacheTTL(config.Symbols.GetCacheTTL()),
		symbols.WithLogger(logger),
	)

	resolver := marketdata.NewResolver(avClient, yahooClient, yahooClient,
		marketdata.WithLogger(logger),
	)

	bus := events.NewBus(logger)

	researchService := research.NewService(bus, storageManager.StateStore(), extractor, resolver, geminiClient, serperClient,
		research.WithLogger(logger),
	)

	mcpServer := server.NewMCPServer(
		"finsight",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		Bus:             bus,
		SymbolExtractor: extractor,
		MarketResolver:  resolver,
		ResearchService: researchService,
		MCPServer:       mcpServer,
		StartupTime:     startupStart,
	}

	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App. In-flight event handlers
// drain before storage closes.
func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Wait()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
