package research

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/finsight/internal/models"
)

// Per-kind system prompts.
var systemPrompts = map[models.AnalysisKind]string{
	models.AnalysisGeneral:     "You are a professional financial analyst. Analyze the financial data provided and give insights, recommendations, and a market outlook. Format your response in markdown with sections.",
	models.AnalysisFundamental: "You are a professional fundamental analyst specializing in company valuation, financial ratios, and long-term investment analysis. Focus on intrinsic value, competitive advantages, and business fundamentals.",
	models.AnalysisPortfolio:   "You are a professional portfolio manager specializing in asset allocation, diversification strategies, and portfolio optimization. Focus on risk-adjusted returns and strategic positioning.",
	models.AnalysisRisk:        "You are a professional risk manager specializing in market risk, credit risk, and operational risk assessment. Focus on risk identification, measurement, and mitigation strategies.",
	models.AnalysisTechnical:   "You are a professional technical analyst specializing in chart patterns, technical indicators, and market timing. Focus on price action, support/resistance levels, and trend analysis.",
}

// Per-kind prompt openers and requested coverage.
var promptIntros = map[models.AnalysisKind]string{
	models.AnalysisGeneral:     "You are a financial analyst. Analyze the following financial information",
	models.AnalysisFundamental: "You are a senior equity research analyst. Perform a thorough fundamental analysis",
	models.AnalysisPortfolio:   "You are a professional portfolio manager. Conduct a comprehensive portfolio analysis",
	models.AnalysisRisk:        "You are a risk management expert. Perform a detailed risk analysis",
	models.AnalysisTechnical:   "You are a technical analysis specialist. Conduct a technical analysis",
}

var promptAsks = map[models.AnalysisKind]string{
	models.AnalysisGeneral: `Based on this information, provide:
- A comprehensive market and company analysis
- Investment recommendations (buy/sell/hold, with rationale)
- Risk assessment and mitigation
- Future outlook and catalysts
- Alternative investment ideas

Format your response in markdown with clear sections, bullet points, and summary tables.`,
	models.AnalysisFundamental: `Please provide a detailed fundamental analysis covering:
- Company valuation and intrinsic value (include DCF or comparable analysis if possible)
- Financial health and stability (liquidity, solvency, profitability ratios)
- Competitive position, market share, and economic moat
- Growth prospects, business model, and management quality
- Long-term investment thesis and expected return drivers
- Key risks, uncertainties, and red flags

Structure your response in markdown with clear sections, bullet points, and tables where appropriate. Use concise, actionable language.`,
	models.AnalysisPortfolio: `Please provide a portfolio analysis including:
- Asset allocation recommendations (with rationale)
- Diversification and correlation assessment
- Risk-adjusted return optimization (e.g., Sharpe ratio, drawdown)
- Sector and geographic allocation insights
- Portfolio rebalancing suggestions and timing
- Alternative investment or hedging considerations

Present your analysis in markdown with clear sections, summary tables, and actionable recommendations.`,
	models.AnalysisRisk: `Please provide a risk analysis covering:
- Market risk (volatility, beta, macro factors)
- Company-specific and sector risks
- Correlation and concentration risks
- Downside risk and stress scenarios
- Risk mitigation and hedging strategies
- Regulatory or geopolitical risks

Format your response in markdown with clear sections, risk tables, and practical recommendations.`,
	models.AnalysisTechnical: `Please provide a technical analysis including:
- Price action and trend direction (with timeframes)
- Key support and resistance levels
- Technical indicators (RSI, MACD, moving averages, etc.)
- Chart pattern recognition (e.g., head and shoulders, triangles)
- Volume and momentum analysis
- Entry/exit point recommendations and stop-loss levels

Present your analysis in markdown with annotated sections and, if possible, ASCII charts or tables.`,
}

// systemPrompt returns the system prompt for an analysis kind.
func systemPrompt(kind models.AnalysisKind) string {
	return systemPrompts[kind]
}

// userPrompt builds the user prompt for an analysis kind from the combined
// research payload.
func userPrompt(kind models.AnalysisKind, query string, response *models.CombinedResponse) string {
	var b strings.Builder

	b.WriteString(promptIntros[kind])
	if query != "" {
		fmt.Fprintf(&b, " for: %q", query)
	}
	b.WriteString(".\n\n")

	if response != nil {
		writeWebResearchSection(&b, response.WebResources)
		writeFinancialDataSection(&b, response.FinancialData)
	}

	b.WriteString("\n")
	b.WriteString(promptAsks[kind])
	return b.String()
}

func writeWebResearchSection(b *strings.Builder, resources []models.WebSearchResult) {
	if len(resources) == 0 {
		return
	}
	b.WriteString("Web Research:\n")
	for i, r := range resources {
		fmt.Fprintf(b, "%d. %s\n   %s\n", i+1, r.Title, r.Snippet)
	}
	b.WriteString("\n")
}

func writeFinancialDataSection(b *strings.Builder, data []models.FinancialSummary) {
	if len(data) == 0 {
		return
	}
	b.WriteString("Financial Data:\n")
	for _, item := range data {
		fmt.Fprintf(b, "Stock: %s (%s)\n", orNA(item.Symbol), orNA(item.Company))
		fmt.Fprintf(b, "Sector: %s\n", orNA(item.Sector))
		fmt.Fprintf(b, "Price: %s (%s)\n", orNA(item.Price), orNA(item.PriceChange.Percentage))
		fmt.Fprintf(b, "Market Cap: %s\n", orNA(item.MarketCap))
		fmt.Fprintf(b, "P/E Ratio: %s\n", orNA(item.PERatio))
		fmt.Fprintf(b, "Analyst Rating: %s\n", orNA(item.Rating))
		if len(item.RecentNews) > 0 {
			b.WriteString("Recent News:\n")
			for _, news := range item.RecentNews {
				fmt.Fprintf(b, "  - %s (%s)\n", orNA(news.Title), orNA(news.Source))
			}
		}
		b.WriteString("\n")
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
