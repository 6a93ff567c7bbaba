package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/finsight/internal/models"
)

// buildComprehensiveReport folds the recorded artifacts into the final
// report. Sections follow the models.AnalysisKinds declaration order, never
// arrival order, so the report is deterministic for a given artifact set.
func buildComprehensiveReport(artifacts map[models.AnalysisKind]*models.AnalysisArtifact, now time.Time) *models.ComprehensiveReport {
	report := &models.ComprehensiveReport{
		Summary:   "Comprehensive Financial Analysis Report",
		Timestamp: now,
		Sections:  make(map[models.AnalysisKind]models.ReportSection),
		Metadata: models.ReportMetadata{
			TotalAnalyses: models.ExpectedAnalysisCount,
			AnalysisTypes: []string{},
		},
	}

	var summaries []string
	for _, cfg := range models.AnalysisKinds {
		artifact, ok := artifacts[cfg.Kind]
		if !ok || artifact == nil {
			continue
		}

		summary := artifact.Summary
		if summary == "" {
			summary = fmt.Sprintf("%s analysis completed", cfg.Kind)
		}
		details := artifact.DetailedAnalysis
		if details == "" {
			details = summary
		}

		report.Sections[cfg.Kind] = models.ReportSection{
			Title:   cfg.Title,
			Summary: summary,
			Details: details,
			Type:    cfg.Kind,
		}
		report.Metadata.CompletedAnalyses++
		report.Metadata.AnalysisTypes = append(report.Metadata.AnalysisTypes, string(cfg.Kind))
		summaries = append(summaries, summary)
	}

	report.ExecutiveSummary = generateExecutiveSummary(summaries)
	return report
}

// generateExecutiveSummary joins the per-section summaries into one
// sentence, with a fixed fallback when none are available.
func generateExecutiveSummary(summaries []string) string {
	valid := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s != "" {
			valid = append(valid, s)
		}
	}

	if len(valid) == 0 {
		return "Comprehensive financial analysis completed with multiple specialized perspectives."
	}
	return fmt.Sprintf("Comprehensive analysis completed with %d specialized perspectives: %s", len(valid), strings.Join(valid, "; "))
}

// extractSummary pulls a short summary from a detailed analysis: the first
// paragraph, truncated at a word boundary around 150 characters.
func extractSummary(analysis string) string {
	if strings.TrimSpace(analysis) == "" {
		return "No analysis summary available"
	}

	firstParagraph := strings.TrimSpace(strings.SplitN(analysis, "\n\n", 2)[0])
	if len(firstParagraph) <= 150 {
		return firstParagraph
	}

	if truncateAt := strings.LastIndex(firstParagraph[:148], " "); truncateAt > 0 {
		return firstParagraph[:truncateAt] + "..."
	}
	return firstParagraph[:147] + "..."
}
