// Package models defines the data structures shared across Finsight services.
package models

import "time"

// AnalysisKind identifies one of the fixed specialized analysis perspectives.
type AnalysisKind string

const (
	AnalysisGeneral     AnalysisKind = "general"
	AnalysisFundamental AnalysisKind = "fundamental"
	AnalysisPortfolio   AnalysisKind = "portfolio"
	AnalysisRisk        AnalysisKind = "risk"
	AnalysisTechnical   AnalysisKind = "technical"
)

// AnalysisKindConfig carries the per-kind wiring: report section title,
// state key for the stored artifact, and the completion topic suffix.
type AnalysisKindConfig struct {
	Kind     AnalysisKind
	Title    string
	StateKey string
	Topic    string
}

// AnalysisKinds is the exhaustive, ordered table of all analysis kinds.
// Report section ordering follows this declaration order, never arrival order.
var AnalysisKinds = []AnalysisKindConfig{
	{Kind: AnalysisGeneral, Title: "General Market Analysis", StateKey: "ai.analysis", Topic: "general.analysis.completed"},
	{Kind: AnalysisFundamental, Title: "Fundamental Analysis", StateKey: "fundamental.analysis", Topic: "fundamental.analysis.completed"},
	{Kind: AnalysisPortfolio, Title: "Portfolio Management Insights", StateKey: "portfolio.analysis", Topic: "portfolio.analysis.completed"},
	{Kind: AnalysisRisk, Title: "Risk Assessment & Management", StateKey: "risk.analysis", Topic: "risk.analysis.completed"},
	{Kind: AnalysisTechnical, Title: "Technical Analysis", StateKey: "technical.analysis", Topic: "technical.analysis.completed"},
}

// KindConfig returns the config entry for a kind, or nil if unknown.
func KindConfig(kind AnalysisKind) *AnalysisKindConfig {
	for i := range AnalysisKinds {
		if AnalysisKinds[i].Kind == kind {
			return &AnalysisKinds[i]
		}
	}
	return nil
}

// ExpectedAnalysisCount is the rendezvous cardinality for the fan-in
// coordinator: a report is built only once this many kinds have reported.
var ExpectedAnalysisCount = len(AnalysisKinds)

// AnalysisArtifact is one completed analysis. Immutable once written.
type AnalysisArtifact struct {
	Kind             AnalysisKind `json:"kind"`
	Summary          string       `json:"summary"`
	DetailedAnalysis string       `json:"detailedAnalysis"`
	Timestamp        time.Time    `json:"timestamp"`
}

// ReportSection is one per-kind section of the comprehensive report.
type ReportSection struct {
	Title   string       `json:"title"`
	Summary string       `json:"summary"`
	Details string       `json:"details"`
	Type    AnalysisKind `json:"type"`
}

// ReportMetadata summarizes completion state of the report.
type ReportMetadata struct {
	TotalAnalyses     int      `json:"totalAnalyses"`
	CompletedAnalyses int      `json:"completedAnalyses"`
	AnalysisTypes     []string `json:"analysisTypes"`
}

// ComprehensiveReport is the final artifact built exactly once per query.
type ComprehensiveReport struct {
	Summary          string                         `json:"summary"`
	Timestamp        time.Time                      `json:"timestamp"`
	Sections         map[AnalysisKind]ReportSection `json:"sections"`
	Metadata         ReportMetadata                 `json:"metadata"`
	ExecutiveSummary string                         `json:"executiveSummary"`
}
