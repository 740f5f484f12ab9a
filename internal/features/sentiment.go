package features

import (
	"strings"

	"github.com/jonreiter/govader"
)

// VaderScorer scores text with VADER. The compound score is already in [-1, 1].
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return clampPolarity(s.analyzer.PolarityScores(text).Compound)
}
