package types

// Scoring factor names, in the order they appear in breakdowns and exports.
const (
	FactorTitle      = "title"
	FactorLocation   = "location"
	FactorCompany    = "company"
	FactorExperience = "experience"
	FactorKeyword    = "keyword"
	FactorFreshness  = "freshness"
)

// FactorNames lists every scoring factor in display order.
var FactorNames = []string{
	FactorTitle,
	FactorLocation,
	FactorCompany,
	FactorExperience,
	FactorKeyword,
	FactorFreshness,
}

// ScoreBreakdown holds the unweighted 0-1 sub-score of each factor.
type ScoreBreakdown struct {
	Title      float64 `json:"title"`
	Location   float64 `json:"location"`
	Company    float64 `json:"company"`
	Experience float64 `json:"experience"`
	Keyword    float64 `json:"keyword"`
	Freshness  float64 `json:"freshness"`
}

// Get returns the sub-score for a factor name, or 0 for unknown names.
func (b ScoreBreakdown) Get(factor string) float64 {
	switch factor {
	case FactorTitle:
		return b.Title
	case FactorLocation:
		return b.Location
	case FactorCompany:
		return b.Company
	case FactorExperience:
		return b.Experience
	case FactorKeyword:
		return b.Keyword
	case FactorFreshness:
		return b.Freshness
	}
	return 0
}

// ScoredPosting is a NormalizedPosting with its recommendation score attached.
// Created by the scorer and never modified afterwards.
type ScoredPosting struct {
	NormalizedPosting
	RecommendationScore float64        `json:"recommendation_score"` // 0-100, two decimals
	ScoreBreakdown      ScoreBreakdown `json:"score_breakdown"`
	Notes               string         `json:"notes,omitempty"`
}
