package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"
)

const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"

	PillarEnvironmental = "ENVIRONMENTAL"
	PillarSocial        = "SOCIAL"
	PillarGovernance    = "GOVERNANCE"

	esgExclusionScore   = 3.0
	esgControversyLimit = 4
	esgPillarAlert      = 3.0
	esgLeaderScore      = 7.0
	esgApprovedScore    = 5.0
	esgEstimatedBase    = 6.0
	esgMaxControversy   = 5
	esgUnknownSector    = "Unknown"
)

var excludedSectors = []string{"Thermal Coal", "Oil Sands", "Tobacco", "Controversial Weapons"}

type esgProfile struct {
	environmental float64
	social        float64
	governance    float64
	controversy   int
	sector        string
}

var esgProfiles = map[string]esgProfile{
	"TSLA":  {environmental: 8.5, social: 5.0, governance: 6.0, controversy: 3, sector: "Automotive"},
	"XOM":   {environmental: 2.5, social: 5.0, governance: 6.0, controversy: 4, sector: "Energy"},
	"CVX":   {environmental: 2.5, social: 5.0, governance: 6.0, controversy: 4, sector: "Energy"},
	"COP":   {environmental: 2.5, social: 5.0, governance: 6.0, controversy: 4, sector: "Energy"},
	"AAPL":  {environmental: 7.0, social: 6.5, governance: 7.5, controversy: 2, sector: "Technology"},
	"MSFT":  {environmental: 7.0, social: 6.5, governance: 7.5, controversy: 2, sector: "Technology"},
	"GOOGL": {environmental: 7.0, social: 6.5, governance: 7.5, controversy: 2, sector: "Technology"},
	"JPM":   {environmental: 5.0, social: 5.5, governance: 6.5, controversy: 3, sector: "Financials"},
	"BAC":   {environmental: 5.0, social: 5.5, governance: 6.5, controversy: 3, sector: "Financials"},
	"GS":    {environmental: 5.0, social: 5.5, governance: 6.5, controversy: 3, sector: "Financials"},
}

type ESGService interface {
	Screen(ctx context.Context, req dto.ESGRequest) (*dto.ESGPortfolioReport, error)
	ScoreTicker(ctx context.Context, ticker string) dto.ESGScore
}

type esgService struct {
	log        *logger.Logger
	validator  *validate.Validator
	marketData MarketDataService
}

// NewESGService builds the screener. marketData may be nil, in which case tickers outside
// the reference table keep an unknown sector.
func NewESGService(log *logger.Logger, validator *validate.Validator, marketData MarketDataService) ESGService {
	return &esgService{
		log:        log,
		validator:  validator,
		marketData: marketData,
	}
}

func (s *esgService) Screen(ctx context.Context, req dto.ESGRequest) (*dto.ESGPortfolioReport, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}
	tickers, err := utils.ParseTickers(req.Tickers...)
	if err != nil {
		return nil, err
	}

	report := &dto.ESGPortfolioReport{}
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Scores = append(report.Scores, s.ScoreTicker(ctx, ticker))
	}
	if req.Portfolio {
		summarizeESG(report)
	}
	return report, nil
}

func (s *esgService) ScoreTicker(ctx context.Context, ticker string) dto.ESGScore {
	profile, known := esgProfiles[ticker]
	var industry string
	if !known {
		profile = estimatedProfile(ticker)
		if s.marketData != nil {
			if record, err := s.marketData.GetRecord(ctx, ticker); err == nil {
				profile.sector = firstNonEmptyString(record.Sector, profile.sector)
				industry = record.Industry
			} else {
				s.log.DebugContext(ctx, "Sector lookup failed for ESG estimate", logger.StringField("ticker", ticker), logger.ErrorField(err))
			}
		}
	}
	score := scoreESG(ticker, profile, industry)
	score.Estimated = !known
	return score
}

// estimatedProfile derives stable pseudo scores in [5,7] and controversy 0..2 from the ticker.
func estimatedProfile(ticker string) esgProfile {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	sum := h.Sum64()

	component := func(shift uint) float64 {
		v := float64((sum>>shift)&0xffff) / 0xffff
		return utils.RoundTo(esgEstimatedBase+(v*2-1), 1)
	}
	return esgProfile{
		environmental: component(0),
		social:        component(16),
		governance:    component(32),
		controversy:   int((sum >> 48) % 3),
		sector:        esgUnknownSector,
	}
}

func scoreESG(ticker string, p esgProfile, industry string) dto.ESGScore {
	env := utils.Clamp(p.environmental, 0, 10)
	soc := utils.Clamp(p.social, 0, 10)
	gov := utils.Clamp(p.governance, 0, 10)

	overall := env*0.30 + soc*0.30 + gov*0.40
	switch {
	case p.controversy >= 4:
		overall *= 0.7
	case p.controversy >= 3:
		overall *= 0.85
	}

	score := dto.ESGScore{
		Ticker:           ticker,
		Sector:           p.sector,
		Environmental:    utils.RoundTo(env, 1),
		Social:           utils.RoundTo(soc, 1),
		Governance:       utils.RoundTo(gov, 1),
		Overall:          utils.RoundTo(overall, 1),
		ControversyLevel: p.controversy,
	}

	if env < esgPillarAlert {
		score.Alerts = append(score.Alerts, dto.ESGAlert{Severity: SeverityHigh, Pillar: PillarEnvironmental, Message: "Poor environmental record"})
	}
	if soc < esgPillarAlert {
		score.Alerts = append(score.Alerts, dto.ESGAlert{Severity: SeverityHigh, Pillar: PillarSocial, Message: "Social concerns"})
	}
	if gov < esgPillarAlert {
		score.Alerts = append(score.Alerts, dto.ESGAlert{Severity: SeverityCritical, Pillar: PillarGovernance, Message: "Governance deficiencies"})
	}
	for _, a := range score.Alerts {
		score.Controversies = append(score.Controversies, a.Message)
	}

	pillars := []struct {
		value        float64
		strong, weak string
	}{
		{env, "Strong environmental management", "Environmental concerns"},
		{soc, "Good labor practices", "Social risks"},
		{gov, "Strong governance", "Governance weaknesses"},
	}
	for _, pl := range pillars {
		switch {
		case pl.value >= 7:
			score.Strengths = append(score.Strengths, pl.strong)
		case pl.value < 4:
			score.Weaknesses = append(score.Weaknesses, pl.weak)
		}
	}

	if score.Overall < esgExclusionScore {
		score.ExclusionReasons = append(score.ExclusionReasons, fmt.Sprintf("Overall ESG score %.1f below threshold %.1f", score.Overall, esgExclusionScore))
	}
	if p.controversy >= esgControversyLimit {
		score.ExclusionReasons = append(score.ExclusionReasons, fmt.Sprintf("High controversy level (%d/%d)", p.controversy, esgMaxControversy))
	}
	for _, a := range score.Alerts {
		if a.Severity == SeverityCritical {
			score.ExclusionReasons = append(score.ExclusionReasons, "Critical ESG issues: "+a.Message)
			break
		}
	}
	for _, excluded := range excludedSectors {
		if strings.EqualFold(p.sector, excluded) || strings.EqualFold(industry, excluded) {
			score.ExclusionReasons = append(score.ExclusionReasons, "Excluded sector: "+excluded)
			break
		}
	}
	score.Excluded = len(score.ExclusionReasons) > 0

	switch {
	case score.Excluded:
		reasons := score.ExclusionReasons
		if len(reasons) > 2 {
			reasons = reasons[:2]
		}
		score.Recommendation = "EXCLUDED - " + strings.Join(reasons, "; ")
	case score.Overall >= esgLeaderScore:
		score.Recommendation = "STRONG BUY - Leader in ESG practices"
	case score.Overall >= esgApprovedScore:
		score.Recommendation = "APPROVED - Meets ESG standards"
	default:
		score.Recommendation = "APPROVED WITH MONITORING - Marginal ESG score"
	}
	return score
}

func summarizeESG(report *dto.ESGPortfolioReport) {
	if len(report.Scores) == 0 {
		return
	}
	var total float64
	var improvable []dto.ESGScore
	for _, sc := range report.Scores {
		total += sc.Overall
		if sc.Excluded {
			report.Excluded = append(report.Excluded, sc.Ticker)
		}
		if sc.Overall >= esgApprovedScore && sc.Overall < esgLeaderScore {
			improvable = append(improvable, sc)
		}
	}
	report.AverageScore = utils.RoundTo(total/float64(len(report.Scores)), 1)

	sort.SliceStable(improvable, func(i, j int) bool { return improvable[i].Overall < improvable[j].Overall })
	for _, sc := range improvable {
		msg := fmt.Sprintf("%s: %.1f -> %.1f", sc.Ticker, sc.Overall, esgLeaderScore)
		if len(sc.Weaknesses) > 0 {
			msg += " (" + strings.Join(sc.Weaknesses, ", ") + ")"
		}
		report.ImprovementOpportunities = append(report.ImprovementOpportunities, msg)
	}
}
