package ranking

import (
	"fmt"
	"math"
)

// Default weights for scoring components
const (
	titleWeight      = 0.30
	locationWeight   = 0.20
	companyWeight    = 0.20
	experienceWeight = 0.15
	keywordWeight    = 0.10
	freshnessWeight  = 0.05
)

// weightSumTolerance absorbs float error in hand-written configs.
const weightSumTolerance = 1e-6

// Weights holds the multiplier applied to each sub-score.
type Weights struct {
	Title      float64 `json:"title" yaml:"title"`
	Location   float64 `json:"location" yaml:"location"`
	Company    float64 `json:"company" yaml:"company"`
	Experience float64 `json:"experience" yaml:"experience"`
	Keyword    float64 `json:"keyword" yaml:"keyword"`
	Freshness  float64 `json:"freshness" yaml:"freshness"`
}

// DefaultWeights returns the fixed 30/20/20/15/10/5 split.
func DefaultWeights() Weights {
	return Weights{
		Title:      titleWeight,
		Location:   locationWeight,
		Company:    companyWeight,
		Experience: experienceWeight,
		Keyword:    keywordWeight,
		Freshness:  freshnessWeight,
	}
}

// IsZero reports whether no weight was set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Title + w.Location + w.Company + w.Experience + w.Keyword + w.Freshness
}

// Validate checks that every weight is within [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"title", w.Title},
		{"location", w.Location},
		{"company", w.Company},
		{"experience", w.Experience},
		{"keyword", w.Keyword},
		{"freshness", w.Freshness},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || n.value < 0 || n.value > 1 {
			return fmt.Errorf("weight %q must be between 0 and 1, got %v", n.name, n.value)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}
