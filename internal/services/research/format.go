package research

import (
	"fmt"

	"github.com/bobmcallan/finsight/internal/models"
)

// buildFinancialSummaries formats resolved symbol records into the view
// embedded in the combined response and fed to analysis prompts.
func buildFinancialSummaries(records []*models.SymbolRecord) []models.FinancialSummary {
	if len(records) == 0 {
		return []models.FinancialSummary{}
	}

	summaries := make([]models.FinancialSummary, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		summaries = append(summaries, models.FinancialSummary{
			Symbol:  r.Symbol,
			Company: r.CompanyInfo.Name,
			Sector:  r.CompanyInfo.Sector,
			Price:   formatCurrency(r.StockData.Price),
			PriceChange: models.PriceChange{
				Value:      formatCurrency(r.StockData.Change),
				Percentage: formatChangePercentage(r.StockData),
			},
			MarketCap:  formatLargeNumber(r.StockData.MarketCap),
			PERatio:    fmt.Sprintf("%.2f", r.StockData.PERatio),
			Rating:     formatAnalystRating(r.Recommendations),
			RecentNews: r.RecentNews,
		})
	}
	return summaries
}

func formatCurrency(value float64) string {
	return fmt.Sprintf("$%.2f", value)
}

func formatChangePercentage(data models.StockData) string {
	if data.Price == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", data.Change/data.Price*100)
}

// formatLargeNumber renders a dollar amount with a T/B/M magnitude suffix.
func formatLargeNumber(value float64) string {
	switch {
	case value >= 1e12:
		return fmt.Sprintf("$%.2fT", value/1e12)
	case value >= 1e9:
		return fmt.Sprintf("$%.2fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("$%.2fM", value/1e6)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}

// formatAnalystRating summarizes recommendation counts as the dominant
// rating with its share of analysts.
func formatAnalystRating(rec models.AnalystRecommendation) string {
	total := rec.Buy + rec.Hold + rec.Sell
	if total == 0 {
		return "No ratings"
	}

	switch {
	case rec.Buy > rec.Hold && rec.Buy > rec.Sell:
		return fmt.Sprintf("Buy (%.0f%% of analysts recommend)", float64(rec.Buy)/float64(total)*100)
	case rec.Hold > rec.Buy && rec.Hold > rec.Sell:
		return fmt.Sprintf("Hold (%.0f%% of analysts recommend)", float64(rec.Hold)/float64(total)*100)
	default:
		return fmt.Sprintf("Sell (%.0f%% of analysts recommend)", float64(rec.Sell)/float64(total)*100)
	}
}
