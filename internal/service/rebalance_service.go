package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"

	"github.com/robfig/cron/v3"
)

const (
	maxTargetWeight     = 0.20
	neutralTargetWeight = 0.05
	concentrationLimit  = 0.20
	fullyInvestedLimit  = 0.95
	highUrgencyConf     = 75
	weightSumTolerance  = 1e-6
	maxUrgentInSummary  = 3
	staleRebalanceDays  = 90
	reviewRebalanceDays = 30
)

type RebalanceService interface {
	Check(ctx context.Context, req dto.RebalanceRequest) (*dto.RebalanceReport, error)
	// Watch runs Check now and then on every tick of spec until ctx is done.
	Watch(ctx context.Context, spec string, req dto.RebalanceRequest, onReport func(*dto.RebalanceReport)) error
}

type rebalanceService struct {
	cfg        *config.Config
	log        *logger.Logger
	validator  *validate.Validator
	analyzer   AnalyzerService
	cronParser cron.Parser
}

func NewRebalanceService(cfg *config.Config, log *logger.Logger, validator *validate.Validator, analyzer AnalyzerService) RebalanceService {
	return &rebalanceService{
		cfg:        cfg,
		log:        log,
		validator:  validator,
		analyzer:   analyzer,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *rebalanceService) Check(ctx context.Context, req dto.RebalanceRequest) (*dto.RebalanceReport, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}

	holdings := make([]dto.Holding, 0, len(req.Holdings))
	tickers := make([]string, 0, len(req.Holdings))
	var total float64
	for _, h := range req.Holdings {
		ticker, err := utils.NormalizeTicker(h.Ticker)
		if err != nil {
			return nil, err
		}
		if utils.ContainsString(tickers, ticker) {
			return nil, fmt.Errorf("duplicate holding %s: %w", ticker, common.ErrInvalidInput)
		}
		tickers = append(tickers, ticker)
		holdings = append(holdings, dto.Holding{Ticker: ticker, Weight: h.Weight})
		total += h.Weight
	}
	if total > 1+weightSumTolerance {
		return nil, fmt.Errorf("holding weights sum to %.4f, above 1: %w", total, common.ErrInvalidInput)
	}

	results, err := s.analyzer.Analyze(ctx, dto.AnalyzeRequest{Tickers: tickers, Mode: dto.ModeRules})
	if err != nil {
		return nil, err
	}
	signals := make(map[string]model.Consensus, len(results))
	for _, r := range results {
		if r.Failed() {
			s.log.WarnContext(ctx, "No consensus for holding, treating as neutral", logger.StringField("ticker", r.Ticker), logger.StringField("error", r.Error))
			continue
		}
		signals[r.Ticker] = r.RawConsensus
	}

	report := buildRebalanceReport(holdings, signals, req.Threshold, req.DaysSince)
	report.GeneratedAt = utils.FormatDate(utils.Today())
	return report, nil
}

func (s *rebalanceService) Watch(ctx context.Context, spec string, req dto.RebalanceRequest, onReport func(*dto.RebalanceReport)) error {
	schedule, err := s.cronParser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %v: %w", spec, err, common.ErrInvalidInput)
	}

	run := func() {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}
		report, err := s.Check(ctx, req)
		if err != nil {
			s.log.ErrorContextWithAlert(ctx, "Rebalance check failed", logger.ErrorField(err))
			return
		}
		s.log.InfoContext(ctx, "Rebalance check completed",
			logger.IntField("health_score", report.HealthScore),
			logger.Float64Field("total_drift", report.TotalDrift),
			logger.Field("needs_rebalance", report.NeedsRebalance),
		)
		onReport(report)
	}
	run()

	c := cron.New(cron.WithParser(s.cronParser))
	c.Schedule(schedule, cron.FuncJob(run))
	c.Start()
	s.log.InfoContext(ctx, "Watching portfolio drift", logger.StringField("schedule", spec))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// rebalanceTarget: bullish scales with confidence up to 20%, neutral holds 5%, bearish exits.
func rebalanceTarget(c model.Consensus) float64 {
	switch c.Direction {
	case model.Bullish:
		return math.Min(maxTargetWeight, 0.10+float64(c.Confidence)/1000)
	case model.Bearish:
		return 0
	default:
		return neutralTargetWeight
	}
}

func buildRebalanceReport(holdings []dto.Holding, signals map[string]model.Consensus, threshold float64, daysSince int) *dto.RebalanceReport {
	targets := make([]float64, len(holdings))
	var targetSum float64
	for i, h := range holdings {
		c, ok := signals[h.Ticker]
		if !ok {
			c = model.Consensus{Direction: model.Neutral}
		}
		targets[i] = rebalanceTarget(c)
		targetSum += targets[i]
	}
	if targetSum > 1 {
		for i := range targets {
			targets[i] /= targetSum
		}
	}

	report := &dto.RebalanceReport{}
	var invested, totalDrift float64
	for i, h := range holdings {
		c, ok := signals[h.Ticker]
		if !ok {
			c = model.Consensus{Direction: model.Neutral}
		}
		drift := h.Weight - targets[i]
		invested += h.Weight
		totalDrift += math.Abs(drift)

		report.Drifts = append(report.Drifts, dto.DriftItem{
			Ticker:        h.Ticker,
			CurrentWeight: utils.RoundTo(h.Weight, 4),
			TargetWeight:  utils.RoundTo(targets[i], 4),
			Drift:         utils.RoundTo(drift, 4),
			Signal:        string(c.Direction),
			Confidence:    c.Confidence,
		})

		if math.Abs(drift) <= threshold {
			report.Schedule.Monitor = append(report.Schedule.Monitor, h.Ticker)
			continue
		}

		action := dto.RebalanceAction{
			Ticker:  h.Ticker,
			From:    utils.RoundTo(h.Weight, 4),
			To:      utils.RoundTo(targets[i], 4),
			Change:  utils.RoundTo(-drift, 4),
			Urgency: dto.UrgencyMedium,
		}
		if drift > 0 {
			action.Action = dto.ActionDecrease
			action.Reason = fmt.Sprintf("Overweight by %.1f%%, %s signal", drift*100, c.Direction)
			if c.Direction == model.Bearish {
				action.Urgency = dto.UrgencyHigh
			}
		} else {
			action.Action = dto.ActionIncrease
			action.Reason = fmt.Sprintf("Underweight by %.1f%%, %s signal", -drift*100, c.Direction)
			if c.Direction == model.Bullish && c.Confidence > highUrgencyConf {
				action.Urgency = dto.UrgencyHigh
			}
		}
		if math.Abs(drift) > 2*threshold {
			action.Urgency = dto.UrgencyHigh
		}
		report.Actions = append(report.Actions, action)

		if action.Urgency == dto.UrgencyHigh {
			report.Schedule.Immediate = append(report.Schedule.Immediate, h.Ticker)
		} else {
			report.Schedule.ThisWeek = append(report.Schedule.ThisWeek, h.Ticker)
		}
	}

	sort.SliceStable(report.Actions, func(i, j int) bool {
		if report.Actions[i].Urgency != report.Actions[j].Urgency {
			return report.Actions[i].Urgency == dto.UrgencyHigh
		}
		return math.Abs(report.Actions[i].Change) > math.Abs(report.Actions[j].Change)
	})

	health := 100 - int(totalDrift*200) - daysSince/2
	if health < 0 {
		health = 0
	}
	report.HealthScore = health
	report.TotalDrift = utils.RoundTo(totalDrift, 4)
	report.NeedsRebalance = len(report.Actions) > 0
	report.Recommendations = rebalanceRecommendations(report, holdings, invested, daysSince)
	return report
}

func rebalanceRecommendations(report *dto.RebalanceReport, holdings []dto.Holding, invested float64, daysSince int) []string {
	var recs []string
	switch {
	case daysSince > staleRebalanceDays:
		recs = append(recs, fmt.Sprintf("Portfolio hasn't been rebalanced in %d days. Consider a full review.", daysSince))
	case daysSince > reviewRebalanceDays:
		recs = append(recs, fmt.Sprintf("%d days since last rebalance. Review positions.", daysSince))
	}

	var urgent []string
	for _, a := range report.Actions {
		if a.Urgency == dto.UrgencyHigh && len(urgent) < maxUrgentInSummary {
			urgent = append(urgent, a.Ticker)
		}
	}
	if len(urgent) > 0 {
		recs = append(recs, fmt.Sprintf("Urgent rebalancing needed: %s", strings.Join(urgent, ", ")))
	}

	for _, h := range holdings {
		if h.Weight > concentrationLimit {
			recs = append(recs, fmt.Sprintf("%s is %.1f%% of the portfolio. Consider trimming below %.0f%%.", h.Ticker, h.Weight*100, concentrationLimit*100))
		}
	}

	if invested > fullyInvestedLimit {
		recs = append(recs, "Portfolio is fully invested. Consider keeping 5-10% cash for opportunities.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Portfolio is well balanced. No action needed.")
	}
	return recs
}
