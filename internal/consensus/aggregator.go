// Package consensus reduces persona signals into a single weighted opinion.
package consensus

import (
	"fmt"
	"math"

	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
)

const (
	// DirectionalThreshold is the score a side must exceed to win.
	DirectionalThreshold = 0.4
	// StrongConfidence separates strong-buy from buy sizing.
	StrongConfidence = 75

	maxKeyRisks   = 5
	riskSnippet   = 50
	noRiskMessage = "No major risks identified"
)

const (
	RecommendationStrongBuy = "Strong buy. Consider 8-12% position."
	RecommendationBuy       = "Buy. Consider 5-8% position."
	RecommendationWatch     = "Watchlist. Wait for better entry."
	RecommendationAvoid     = "Avoid or reduce position."
)

// Aggregate computes the weighted consensus of signals. It is a pure function of its input.
func Aggregate(signals []model.Signal) (model.Consensus, error) {
	if len(signals) == 0 {
		return model.Consensus{}, fmt.Errorf("empty signal set: %w", common.ErrInvalidInput)
	}

	var (
		weightedBullish, weightedBearish, totalWeight float64
		bullishCount, bearishCount, neutralCount      int
	)

	for _, s := range signals {
		if err := s.Validate(); err != nil {
			return model.Consensus{}, fmt.Errorf("%v: %w", err, common.ErrInvalidInput)
		}

		w := s.EffectiveWeight()
		conf := float64(s.Confidence) / 100

		switch s.Direction {
		case model.Bullish:
			weightedBullish += w * conf
			bullishCount++
		case model.Bearish:
			weightedBearish += w * conf
			bearishCount++
		default:
			neutralCount++
		}
		totalWeight += w
	}

	if totalWeight == 0 {
		return model.Consensus{}, fmt.Errorf("total signal weight is zero: %w", common.ErrInvalidInput)
	}

	bullishScore := weightedBullish / totalWeight
	bearishScore := weightedBearish / totalWeight

	result := model.Consensus{
		BullishScore: bullishScore,
		BearishScore: bearishScore,
		BullishCount: bullishCount,
		BearishCount: bearishCount,
		NeutralCount: neutralCount,
		Total:        len(signals),
		Agreement:    fmt.Sprintf("%d/%d bullish, %d/%d bearish", bullishCount, len(signals), bearishCount, len(signals)),
	}

	switch {
	case bullishScore > bearishScore && bullishScore > DirectionalThreshold:
		result.Direction = model.Bullish
		result.Confidence = clampConfidence(math.Round(bullishScore * 100))
	case bearishScore > bullishScore && bearishScore > DirectionalThreshold:
		result.Direction = model.Bearish
		result.Confidence = clampConfidence(math.Round(bearishScore * 100))
	default:
		result.Direction = model.Neutral
		result.Confidence = clampConfidence(math.Round((1-math.Abs(bullishScore-bearishScore))*50 + 25))
	}

	result.Recommendation = Recommend(result.Direction, result.Confidence)
	result.KeyRisks = collectRisks(signals)

	return result, nil
}

// Recommend maps a consensus direction and confidence to sizing text.
func Recommend(direction model.Direction, confidence int) string {
	switch {
	case direction == model.Bullish && confidence > StrongConfidence:
		return RecommendationStrongBuy
	case direction == model.Bullish:
		return RecommendationBuy
	case direction == model.Bearish:
		return RecommendationAvoid
	default:
		return RecommendationWatch
	}
}

func collectRisks(signals []model.Signal) []string {
	var risks []string
	seen := map[string]bool{}
	add := func(r string) {
		if r == "" || seen[r] || len(risks) >= maxKeyRisks {
			return
		}
		seen[r] = true
		risks = append(risks, r)
	}

	for _, s := range signals {
		for _, r := range s.Risks {
			add(r)
		}
	}
	for _, s := range signals {
		if s.Direction == model.Bullish || s.Rationale == "" {
			continue
		}
		add(fmt.Sprintf("%s: %s", s.Source, truncate(s.Rationale, riskSnippet)))
	}

	if len(risks) == 0 {
		return []string{noRiskMessage}
	}
	return risks
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func clampConfidence(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
