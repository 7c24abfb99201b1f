package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/indicator"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	// Calendar days fetched before the start date so momentum has history on day one.
	backtestWarmupDays = 200
	momentumShort      = 63
	momentumLong       = 126
	tradeThreshold     = 0.01
	defaultPE          = 100.0
	defaultPB          = 10.0
)

type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error)
}

type backtestService struct {
	cfg        *config.Config
	log        *logger.Logger
	validator  *validate.Validator
	marketData MarketDataService
	analyzer   AnalyzerService
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	validator *validate.Validator,
	marketData MarketDataService,
	analyzer AnalyzerService,
) BacktestService {
	return &backtestService{
		cfg:        cfg,
		log:        log,
		validator:  validator,
		marketData: marketData,
		analyzer:   analyzer,
	}
}

type valuation struct {
	pe *float64
	pb *float64
}

// simulation holds everything simulate needs; it performs no I/O.
type simulation struct {
	strategy       string
	rebalance      string
	initialCapital decimal.Decimal
	commission     decimal.Decimal
	riskFreeRate   float64
	start          time.Time
	end            time.Time
	tickers        []string
	prices         map[string]*dto.PriceHistory
	benchmark      *dto.PriceHistory
	consensus      map[string]model.Consensus
	valuations     map[string]valuation
}

type position struct {
	shares    decimal.Decimal
	costBasis decimal.Decimal
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}
	tickers, err := utils.ParseTickers(req.Tickers...)
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end date %s must be after start date %s: %w", req.EndDate, req.StartDate, common.ErrInvalidInput)
	}

	capital := req.Capital
	if capital == 0 {
		capital = s.cfg.Backtest.InitialCapital
	}

	sim := simulation{
		strategy:       req.Strategy,
		rebalance:      req.Rebalance,
		initialCapital: decimal.NewFromFloat(capital),
		commission:     decimal.NewFromFloat(s.cfg.Backtest.Commission),
		riskFreeRate:   s.cfg.Backtest.RiskFreeRate,
		start:          start,
		end:            end,
		prices:         make(map[string]*dto.PriceHistory, len(tickers)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	from := start.AddDate(0, 0, -backtestWarmupDays)
	to := end.AddDate(0, 0, 1)
	for _, ticker := range tickers {
		g.Go(func() error {
			history, err := s.marketData.GetPriceHistory(gctx, ticker, from, to)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.WarnContext(gctx, "Skipping ticker without price history", logger.StringField("ticker", ticker), logger.ErrorField(err))
				return nil
			}
			mu.Lock()
			sim.prices[ticker] = history
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		history, err := s.marketData.GetPriceHistory(gctx, common.BENCHMARK_TICKER, start, to)
		if err != nil {
			s.log.WarnContext(gctx, "Benchmark history unavailable", logger.ErrorField(err))
			return nil
		}
		sim.benchmark = history
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ticker := range tickers {
		if _, ok := sim.prices[ticker]; ok {
			sim.tickers = append(sim.tickers, ticker)
		}
	}
	if len(sim.tickers) == 0 {
		return nil, fmt.Errorf("no price history for %v: %w", tickers, common.ErrDataUnavailable)
	}

	if err := s.loadSignals(ctx, &sim); err != nil {
		return nil, err
	}

	result, err := simulate(sim)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Backtest simulation completed",
		logger.StringField("strategy", sim.strategy),
		logger.StringsField("tickers", sim.tickers),
		logger.IntField("total_trades", result.TotalTrades),
		logger.Float64Field("total_return", result.TotalReturn),
	)
	return result, nil
}

// loadSignals computes strategy inputs once from current data, not point in time.
func (s *backtestService) loadSignals(ctx context.Context, sim *simulation) error {
	switch sim.strategy {
	case dto.StrategyAIConsensus:
		results, err := s.analyzer.Analyze(ctx, dto.AnalyzeRequest{Tickers: sim.tickers, Mode: dto.ModeRules})
		if err != nil {
			return err
		}
		sim.consensus = make(map[string]model.Consensus, len(results))
		for _, r := range results {
			if r.Failed() {
				s.log.WarnContext(ctx, "No consensus for ticker, holding no position", logger.StringField("ticker", r.Ticker), logger.StringField("error", r.Error))
				continue
			}
			sim.consensus[r.Ticker] = r.RawConsensus
		}
	case dto.StrategyValue:
		sim.valuations = make(map[string]valuation, len(sim.tickers))
		for _, ticker := range sim.tickers {
			record, err := s.marketData.GetRecord(ctx, ticker)
			if err != nil {
				s.log.WarnContext(ctx, "Valuation unavailable, using defaults", logger.StringField("ticker", ticker), logger.ErrorField(err))
				continue
			}
			sim.valuations[ticker] = valuation{pe: record.PERatio, pb: record.PBRatio}
		}
	}
	return nil
}

func simulate(sim simulation) (*dto.BacktestResult, error) {
	calendar := tradingCalendar(sim.prices, sim.start, sim.end)
	if len(calendar) < 2 {
		return nil, fmt.Errorf("fewer than 2 trading days between %s and %s: %w",
			utils.FormatDate(sim.start), utils.FormatDate(sim.end), common.ErrDataUnavailable)
	}

	cash := sim.initialCapital
	positions := map[string]*position{}
	var (
		trades []dto.TradeLog
		curve  []dto.EquityPoint
	)

	for i, day := range calendar {
		prices := pricesOn(sim.prices, sim.tickers, day)

		var prev time.Time
		if i > 0 {
			prev = calendar[i-1]
		}
		if isRebalanceDay(sim.rebalance, i, day, prev) {
			weights := targetWeights(sim, day, prices)
			equity := portfolioValue(cash, positions, prices)
			threshold := equity.Mul(decimal.NewFromFloat(tradeThreshold))

			for _, ticker := range sortedKeys(positions) {
				if _, keep := weights[ticker]; keep {
					continue
				}
				price, ok := prices[ticker]
				if !ok {
					continue
				}
				trade, proceeds := sell(ticker, positions, positions[ticker].shares, price, sim.commission, day)
				cash = cash.Add(proceeds)
				trades = append(trades, trade)
			}

			for _, ticker := range sim.tickers {
				w, ok := weights[ticker]
				price, priced := prices[ticker]
				if !ok || !priced {
					continue
				}
				target := equity.Mul(decimal.NewFromFloat(w))
				current := decimal.Zero
				if p := positions[ticker]; p != nil {
					current = p.shares.Mul(price)
				}
				diff := target.Sub(current)
				if diff.Abs().LessThanOrEqual(threshold) {
					continue
				}
				if diff.IsPositive() {
					fee := diff.Mul(sim.commission)
					if diff.Add(fee).GreaterThan(cash) {
						diff = cash.Div(decimal.NewFromInt(1).Add(sim.commission))
						fee = diff.Mul(sim.commission)
					}
					if !diff.IsPositive() {
						continue
					}
					shares := diff.Div(price)
					p := positions[ticker]
					if p == nil {
						p = &position{}
						positions[ticker] = p
					}
					p.shares = p.shares.Add(shares)
					p.costBasis = p.costBasis.Add(diff)
					cash = cash.Sub(diff).Sub(fee)
					trades = append(trades, tradeLog(day, ticker, SideBuy, shares, price, diff, fee, decimal.Zero))
				} else {
					trade, proceeds := sell(ticker, positions, diff.Neg().Div(price), price, sim.commission, day)
					cash = cash.Add(proceeds)
					trades = append(trades, trade)
				}
			}
		}

		curve = append(curve, dto.EquityPoint{
			Date:  day,
			Value: portfolioValue(cash, positions, prices).Round(2).InexactFloat64(),
		})
	}

	return backtestMetrics(sim, curve, trades), nil
}

// sell reduces a position at average cost and returns the fill and the net proceeds.
func sell(ticker string, positions map[string]*position, shares, price, commission decimal.Decimal, day time.Time) (dto.TradeLog, decimal.Decimal) {
	p := positions[ticker]
	if shares.GreaterThan(p.shares) {
		shares = p.shares
	}
	value := shares.Mul(price)
	fee := value.Mul(commission)

	avgCost := decimal.Zero
	if p.shares.IsPositive() {
		avgCost = p.costBasis.Div(p.shares)
	}
	cost := avgCost.Mul(shares)
	pnl := value.Sub(cost).Sub(fee)

	p.shares = p.shares.Sub(shares)
	p.costBasis = p.costBasis.Sub(cost)
	if !p.shares.IsPositive() {
		delete(positions, ticker)
	}
	return tradeLog(day, ticker, SideSell, shares, price, value, fee, pnl), value.Sub(fee)
}

func tradeLog(day time.Time, ticker, side string, shares, price, value, fee, pnl decimal.Decimal) dto.TradeLog {
	return dto.TradeLog{
		Date:       day,
		Ticker:     ticker,
		Side:       side,
		Shares:     shares.Round(4).InexactFloat64(),
		Price:      price.Round(2).InexactFloat64(),
		Value:      value.Round(2).InexactFloat64(),
		Commission: fee.Round(2).InexactFloat64(),
		ProfitLoss: pnl.Round(2).InexactFloat64(),
	}
}

// isRebalanceDay: the first day always trades, weekly is every fifth session, monthly the
// first session of a month, quarterly the first session of Jan, Apr, Jul and Oct.
func isRebalanceDay(freq string, i int, day, prev time.Time) bool {
	if i == 0 {
		return true
	}
	newMonth := day.Month() != prev.Month()
	switch freq {
	case dto.RebalanceWeekly:
		return i%5 == 0
	case dto.RebalanceQuarterly:
		return newMonth && (day.Month()-1)%3 == 0
	default:
		return newMonth
	}
}

// targetWeights returns normalized weights keyed by ticker; tickers absent from the map
// are sold. An empty map means hold cash.
func targetWeights(sim simulation, day time.Time, prices map[string]decimal.Decimal) map[string]float64 {
	raw := map[string]float64{}
	for _, ticker := range sim.tickers {
		if _, ok := prices[ticker]; !ok {
			continue
		}
		switch sim.strategy {
		case dto.StrategyEqualWeight:
			raw[ticker] = 1
		case dto.StrategyAIConsensus:
			c, ok := sim.consensus[ticker]
			if !ok {
				continue
			}
			switch c.Direction {
			case model.Bullish:
				raw[ticker] = 0.15 + float64(c.Confidence)/100*0.10
			case model.Neutral:
				raw[ticker] = 0.05
			}
		case dto.StrategyMomentum:
			if m, ok := momentumScore(sim.prices[ticker], day); ok {
				raw[ticker] = math.Max(0, m+0.1)
			}
		case dto.StrategyValue:
			v := sim.valuations[ticker]
			pe := utils.Deref(v.pe, defaultPE)
			pb := utils.Deref(v.pb, defaultPB)
			if pe <= 0 {
				pe = defaultPE
			}
			if pb <= 0 {
				pb = defaultPB
			}
			raw[ticker] = 1/(pe+1)*0.5 + 1/(pb+1)*0.5
		}
	}

	var total float64
	for ticker, w := range raw {
		if w <= 0 {
			delete(raw, ticker)
			continue
		}
		total += w
	}
	for ticker := range raw {
		raw[ticker] /= total
	}
	return raw
}

// momentumScore blends 3 and 6 month returns using closes up to day.
func momentumScore(h *dto.PriceHistory, day time.Time) (float64, bool) {
	var closes []float64
	for _, b := range h.Bars {
		if b.Date.After(day) {
			break
		}
		closes = append(closes, b.Close)
	}
	if len(closes) <= momentumLong {
		return 0, false
	}
	short := indicator.PeriodReturn(closes, momentumShort)
	long := indicator.PeriodReturn(closes, momentumLong)
	if short == nil || long == nil {
		return 0, false
	}
	return 0.6*(*short) + 0.4*(*long), true
}

func tradingCalendar(histories map[string]*dto.PriceHistory, start, end time.Time) []time.Time {
	seen := map[time.Time]bool{}
	var days []time.Time
	for _, h := range histories {
		for _, b := range h.Bars {
			d := utils.StartOfDay(b.Date)
			if d.Before(start) || d.After(end) || seen[d] {
				continue
			}
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func pricesOn(histories map[string]*dto.PriceHistory, tickers []string, day time.Time) map[string]decimal.Decimal {
	endOfDay := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	out := make(map[string]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		if price, ok := histories[ticker].CloseOn(endOfDay); ok && price > 0 {
			out[ticker] = decimal.NewFromFloat(price)
		}
	}
	return out
}

func portfolioValue(cash decimal.Decimal, positions map[string]*position, prices map[string]decimal.Decimal) decimal.Decimal {
	total := cash
	for ticker, p := range positions {
		price, ok := prices[ticker]
		if !ok {
			// carry at cost until a price prints
			total = total.Add(p.costBasis)
			continue
		}
		total = total.Add(p.shares.Mul(price))
	}
	return total
}

func sortedKeys(positions map[string]*position) []string {
	keys := make([]string, 0, len(positions))
	for k := range positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func backtestMetrics(sim simulation, curve []dto.EquityPoint, trades []dto.TradeLog) *dto.BacktestResult {
	initial := sim.initialCapital.InexactFloat64()
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	final := values[len(values)-1]
	days := float64(len(values))

	totalReturn := final/initial - 1
	annualized := math.Pow(final/initial, indicator.TradingDaysPerYear/days) - 1
	vol := indicator.StdDev(indicator.DailyReturns(values)) * math.Sqrt(indicator.TradingDaysPerYear)

	var sharpe float64
	if vol > 0 {
		sharpe = (annualized - sim.riskFreeRate) / vol
	}

	var benchmarkReturn, benchmarkAnnualized float64
	if sim.benchmark != nil {
		if r := indicator.TotalReturn(sim.benchmark.Closes()); r != nil {
			benchmarkReturn = *r
			benchmarkAnnualized = math.Pow(1+benchmarkReturn, indicator.TradingDaysPerYear/days) - 1
		}
	}
	// CAPM alpha with beta fixed at one.
	alpha := annualized - (sim.riskFreeRate + (benchmarkAnnualized - sim.riskFreeRate))

	var sells, wins int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.Side != SideSell {
			continue
		}
		sells++
		switch {
		case t.ProfitLoss > 0:
			wins++
			grossProfit += t.ProfitLoss
		case t.ProfitLoss < 0:
			grossLoss -= t.ProfitLoss
		}
	}
	var winRate, profitFactor float64
	if sells > 0 {
		winRate = float64(wins) / float64(sells)
	}
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}

	return &dto.BacktestResult{
		Strategy:         sim.strategy,
		Tickers:          sim.tickers,
		StartDate:        sim.start,
		EndDate:          sim.end,
		Rebalance:        sim.rebalance,
		InitialCapital:   initial,
		FinalValue:       utils.RoundTo(final, 2),
		TotalReturn:      utils.RoundTo(totalReturn, 4),
		AnnualizedReturn: utils.RoundTo(annualized, 4),
		Volatility:       utils.RoundTo(vol, 4),
		SharpeRatio:      utils.RoundTo(sharpe, 2),
		MaxDrawdown:      utils.RoundTo(indicator.MaxDrawdown(values), 4),
		BenchmarkReturn:  utils.RoundTo(benchmarkReturn, 4),
		Alpha:            utils.RoundTo(alpha, 4),
		WinRate:          utils.RoundTo(winRate, 4),
		ProfitFactor:     utils.RoundTo(profitFactor, 2),
		TotalTrades:      len(trades),
		Trades:           trades,
		EquityCurve:      curve,
	}
}
