package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"
)

func f(v float64) *float64 { return utils.ToPointer(v) }

func testConfig() *config.Config {
	return &config.Config{
		Analyzer: config.Analyzer{MaxConcurrency: 2, Mode: dto.ModeRules},
		Backtest: config.Backtest{Commission: 0.001, InitialCapital: 100000, RiskFreeRate: 0.04},
		Tax:      config.Tax{ShortTermRate: 0.35, LongTermRate: 0.20},
		Cache:    config.Cache{RecordTTL: time.Hour},
	}
}

var (
	testLog       = logger.NewNop()
	testValidator = validate.New()
)

type fakeMarketData struct {
	mu        sync.Mutex
	records   map[string]*model.FinancialRecord
	histories map[string]*dto.PriceHistory
	calls     []string
}

func (m *fakeMarketData) GetRecord(_ context.Context, ticker string) (*model.FinancialRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "record:"+ticker)
	m.mu.Unlock()
	if r, ok := m.records[ticker]; ok {
		return r, nil
	}
	return &model.FinancialRecord{Ticker: ticker}, fmt.Errorf("no data for %s: %w", ticker, common.ErrDataUnavailable)
}

func (m *fakeMarketData) GetPriceHistory(_ context.Context, ticker string, from, to time.Time) (*dto.PriceHistory, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "history:"+ticker)
	m.mu.Unlock()
	h, ok := m.histories[ticker]
	if !ok {
		return nil, fmt.Errorf("no history for %s: %w", ticker, common.ErrDataUnavailable)
	}
	out := &dto.PriceHistory{Symbol: h.Symbol, Currency: h.Currency}
	for _, b := range h.Bars {
		if !b.Date.Before(from) && b.Date.Before(to) {
			out.Bars = append(out.Bars, b)
		}
	}
	if len(out.Bars) == 0 {
		return nil, fmt.Errorf("empty history for %s: %w", ticker, common.ErrDataUnavailable)
	}
	return out, nil
}

func (m *fakeMarketData) GetMacroSnapshot(context.Context) (*MacroSnapshot, error) {
	return &MacroSnapshot{VIX: f(18), SPYTrend10D: f(1), Regime: "choppy"}, nil
}

// fakeAnalyzer returns canned consensus per ticker; unknown tickers fail.
type fakeAnalyzer struct {
	consensus map[string]model.Consensus
	records   map[string]*model.FinancialRecord
}

func (a *fakeAnalyzer) result(ticker string) (dto.AnalysisResult, error) {
	c, ok := a.consensus[ticker]
	if !ok {
		return dto.AnalysisResult{}, fmt.Errorf("%s: %w", ticker, common.ErrNoUsableSignals)
	}
	record := a.records[ticker]
	if record == nil {
		record = &model.FinancialRecord{Ticker: ticker, Price: f(100)}
	}
	return dto.AnalysisResult{
		Ticker:       ticker,
		Consensus:    dto.NewConsensusView(c),
		DataQuality:  DataQualityPartial,
		Record:       record,
		RawConsensus: c,
	}, nil
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req dto.AnalyzeRequest) ([]dto.AnalysisResult, error) {
	out := make([]dto.AnalysisResult, 0, len(req.Tickers))
	for _, ticker := range req.Tickers {
		r, err := a.result(ticker)
		if err != nil {
			r = dto.AnalysisResult{Ticker: ticker, Error: err.Error()}
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *fakeAnalyzer) AnalyzeTicker(_ context.Context, ticker, _ string) (dto.AnalysisResult, error) {
	return a.result(ticker)
}

func (a *fakeAnalyzer) Evaluate(context.Context, model.FinancialRecord, string) (model.Consensus, []model.Signal, error) {
	return model.Consensus{}, nil, common.ErrNoUsableSignals
}

func consensusOf(d model.Direction, conf int) model.Consensus {
	return model.Consensus{Direction: d, Confidence: conf}
}

// dailyHistory builds one bar per weekday starting at start, with closes from price(i).
func dailyHistory(symbol string, start time.Time, n int, price func(i int) float64) *dto.PriceHistory {
	h := &dto.PriceHistory{Symbol: symbol, Currency: "USD"}
	day := start
	for i := 0; i < n; {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			h.Bars = append(h.Bars, dto.PriceBar{Date: day, Close: price(i), Volume: 1000})
			i++
		}
		day = day.AddDate(0, 0, 1)
	}
	return h
}
