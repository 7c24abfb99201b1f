package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"
)

const (
	minPositionWeight     = 0.02
	defaultVolatility     = 0.30
	assumedCorrelation    = 0.3
	defaultRiskFreeRate   = 0.04
	drawdownVolMultiplier = 2.5
	maxFallbackCandidates = 10
	clipIterations        = 10
)

type riskProfile struct {
	maxPosition float64
	targetVol   float64
}

var riskProfiles = map[string]riskProfile{
	dto.RiskConservative: {maxPosition: 0.15, targetVol: 0.12},
	dto.RiskModerate:     {maxPosition: 0.20, targetVol: 0.18},
	dto.RiskAggressive:   {maxPosition: 0.30, targetVol: 0.28},
}

type PortfolioService interface {
	Build(ctx context.Context, req dto.PortfolioRequest) (*dto.PortfolioResult, error)
}

type portfolioService struct {
	cfg       *config.Config
	log       *logger.Logger
	validator *validate.Validator
	analyzer  AnalyzerService
}

func NewPortfolioService(cfg *config.Config, log *logger.Logger, validator *validate.Validator, analyzer AnalyzerService) PortfolioService {
	return &portfolioService{
		cfg:       cfg,
		log:       log,
		validator: validator,
		analyzer:  analyzer,
	}
}

// candidate is one analysed ticker eligible for the portfolio.
type candidate struct {
	ticker     string
	direction  model.Direction
	confidence int
	histReturn *float64
	volatility *float64
	sector     string
	price      *float64
}

func (s *portfolioService) Build(ctx context.Context, req dto.PortfolioRequest) (*dto.PortfolioResult, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}

	results, err := s.analyzer.Analyze(ctx, dto.AnalyzeRequest{Tickers: req.Tickers, Mode: dto.ModeRules})
	if err != nil {
		return nil, err
	}

	failures := map[string]string{}
	var candidates []candidate
	for _, r := range results {
		if r.Failed() || r.Record == nil || r.DataQuality == DataQualityUnavailable {
			failures[r.Ticker] = utils.CapitalizeSentence(firstNonEmptyString(r.Error, "no market data"))
			continue
		}
		candidates = append(candidates, candidate{
			ticker:     r.Ticker,
			direction:  r.RawConsensus.Direction,
			confidence: r.RawConsensus.Confidence,
			histReturn: r.Record.Return1Y,
			volatility: r.Record.Volatility,
			sector:     r.Record.Sector,
			price:      r.Record.Price,
		})
	}

	riskFree := s.cfg.Backtest.RiskFreeRate
	if riskFree == 0 {
		riskFree = defaultRiskFreeRate
	}

	result, err := constructPortfolio(req.Risk, req.Capital, riskFree, candidates)
	if err != nil {
		s.log.WarnContext(ctx, "Portfolio construction failed", logger.ErrorField(err), logger.Field("failures", failures))
		return nil, err
	}
	if len(failures) > 0 {
		result.Failures = failures
	}
	result.GeneratedAt = utils.FormatDate(utils.Today())
	return result, nil
}

// expectedReturn blends the signal implied return with the trailing one-year return.
func expectedReturn(direction model.Direction, confidence int, histReturn *float64) float64 {
	conf := float64(confidence) / 100
	var base float64
	switch direction {
	case model.Bullish:
		base = 0.12 + conf*0.08
	case model.Neutral:
		base = 0.06 + conf*0.04
	default:
		base = -0.05
	}
	if histReturn != nil {
		return 0.6*base + 0.4*(*histReturn)
	}
	return base
}

func constructPortfolio(risk string, capital, riskFree float64, candidates []candidate) (*dto.PortfolioResult, error) {
	profile, ok := riskProfiles[risk]
	if !ok {
		return nil, fmt.Errorf("unknown risk profile %q: %w", risk, common.ErrInvalidInput)
	}
	if len(candidates) < 2 {
		return nil, fmt.Errorf("need at least 2 analysable stocks, got %d: %w", len(candidates), common.ErrDataUnavailable)
	}

	qualified := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.direction != model.Bearish {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) < 2 {
		qualified = candidates
		if len(qualified) > maxFallbackCandidates {
			qualified = qualified[:maxFallbackCandidates]
		}
	}

	n := len(qualified)
	returns := make([]float64, n)
	vols := make([]float64, n)
	for i, c := range qualified {
		returns[i] = expectedReturn(c.direction, c.confidence, c.histReturn)
		vols[i] = utils.Deref(c.volatility, defaultVolatility)
		if vols[i] <= 0 {
			vols[i] = defaultVolatility
		}
	}

	weights := optimizeWeights(qualified, returns, vols, profile.maxPosition)

	result := &dto.PortfolioResult{RiskProfile: risk, Capital: capital}
	var keptWeights, keptReturns, keptVols []float64
	sectors := map[string]float64{}
	for i, c := range qualified {
		if weights[i] < minPositionWeight {
			continue
		}
		sector := firstNonEmptyString(c.sector, "Unknown")
		pos := dto.PortfolioPosition{
			Ticker:         c.ticker,
			Weight:         utils.RoundTo(weights[i], 4),
			Amount:         utils.RoundTo(weights[i]*capital, 2),
			Signal:         string(c.direction),
			Confidence:     c.confidence,
			ExpectedReturn: utils.RoundTo(returns[i], 4),
			Volatility:     utils.RoundTo(vols[i], 4),
			Sector:         sector,
		}
		if c.price != nil && *c.price > 0 {
			pos.Price = *c.price
			pos.Shares = math.Floor(weights[i] * capital / *c.price)
		}
		result.Positions = append(result.Positions, pos)
		keptWeights = append(keptWeights, weights[i])
		keptReturns = append(keptReturns, returns[i])
		keptVols = append(keptVols, vols[i])
		sectors[sector] += weights[i]
	}

	sort.SliceStable(result.Positions, func(i, j int) bool {
		return result.Positions[i].Weight > result.Positions[j].Weight
	})

	result.Metrics = portfolioMetrics(keptWeights, keptReturns, keptVols, sectors, riskFree)
	result.Recommendations = portfolioRecommendations(risk, profile, result)
	return result, nil
}

// optimizeWeights is inverse volatility scaled by relative expected return, then clipped
// to the position bounds. Bearish names that only entered as fallback get no weight.
func optimizeWeights(assets []candidate, returns, vols []float64, maxPosition float64) []float64 {
	n := len(assets)
	minRet, maxRet := returns[0], returns[0]
	for _, r := range returns {
		minRet = math.Min(minRet, r)
		maxRet = math.Max(maxRet, r)
	}

	weights := make([]float64, n)
	for i := range assets {
		if assets[i].direction == model.Bearish {
			continue
		}
		adjustment := (returns[i] - minRet) / (maxRet - minRet + 0.001)
		weights[i] = 1 / (vols[i] + 0.01) * (1 + adjustment)
	}
	normalize(weights)

	for iter := 0; iter < clipIterations; iter++ {
		changed := false
		for i, w := range weights {
			if w == 0 {
				continue
			}
			clipped := math.Max(minPositionWeight, math.Min(maxPosition, w))
			if clipped != w {
				weights[i] = clipped
				changed = true
			}
		}
		normalize(weights)
		if !changed {
			break
		}
	}
	return weights
}

func normalize(weights []float64) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return
	}
	for i := range weights {
		weights[i] /= total
	}
}

func portfolioMetrics(weights, returns, vols []float64, sectors map[string]float64, riskFree float64) dto.PortfolioMetrics {
	var ret, variance float64
	for i := range weights {
		ret += weights[i] * returns[i]
		for j := range weights {
			corr := assumedCorrelation
			if i == j {
				corr = 1
			}
			variance += weights[i] * weights[j] * vols[i] * vols[j] * corr
		}
	}
	vol := math.Sqrt(variance)

	var sharpe float64
	if vol > 0 {
		sharpe = (ret - riskFree) / vol
	}

	var hhi float64
	exposure := make(map[string]float64, len(sectors))
	for sector, w := range sectors {
		hhi += w * w
		exposure[sector] = utils.RoundTo(w, 4)
	}

	return dto.PortfolioMetrics{
		ExpectedReturn:       utils.RoundTo(ret, 4),
		Volatility:           utils.RoundTo(vol, 4),
		SharpeRatio:          utils.RoundTo(sharpe, 2),
		DiversificationScore: math.Trunc((1 - hhi) * 100),
		MaxDrawdownEstimate:  utils.RoundTo(-drawdownVolMultiplier*vol, 4),
		SectorExposure:       exposure,
	}
}

func portfolioRecommendations(risk string, profile riskProfile, p *dto.PortfolioResult) []string {
	if len(p.Positions) == 0 {
		return []string{"No stock qualified for a position. Consider holding cash."}
	}

	var recs []string
	m := p.Metrics

	if m.Volatility > 0.25 && risk != dto.RiskAggressive {
		recs = append(recs, fmt.Sprintf("High volatility (%.1f%%) for a %s profile targeting %.0f%%. Consider reducing position sizes or adding defensive stocks.",
			m.Volatility*100, risk, profile.targetVol*100))
	}

	switch {
	case m.SharpeRatio < 0.5:
		recs = append(recs, fmt.Sprintf("Low Sharpe ratio (%.2f). Risk-adjusted returns could be improved.", m.SharpeRatio))
	case m.SharpeRatio > 1.0:
		recs = append(recs, fmt.Sprintf("Excellent Sharpe ratio (%.2f). Good risk-adjusted returns.", m.SharpeRatio))
	}

	sectorNames := make([]string, 0, len(m.SectorExposure))
	for sector := range m.SectorExposure {
		sectorNames = append(sectorNames, sector)
	}
	sort.Strings(sectorNames)
	var topSector string
	var topWeight float64
	for _, sector := range sectorNames {
		if w := m.SectorExposure[sector]; w > topWeight {
			topSector, topWeight = sector, w
		}
	}
	if topWeight > 0.40 {
		recs = append(recs, fmt.Sprintf("High concentration in %s (%.1f%%). Consider diversifying.", topSector, topWeight*100))
	}

	small := 0
	for _, pos := range p.Positions {
		switch {
		case pos.Signal == string(model.Bearish) && pos.Weight > 0.05:
			recs = append(recs, fmt.Sprintf("Reduce %s (%.1f%%), bearish signal", pos.Ticker, pos.Weight*100))
		case pos.Signal == string(model.Bullish) && pos.Confidence >= 75 && pos.Weight < 0.10:
			recs = append(recs, fmt.Sprintf("Consider increasing %s, strong bullish signal", pos.Ticker))
		}
		if pos.Weight < 0.03 {
			small++
		}
	}
	if small > 0 {
		recs = append(recs, fmt.Sprintf("%d positions under 3%%, consider consolidating", small))
	}
	return recs
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
