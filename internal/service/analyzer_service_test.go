package service

import (
	"context"
	"errors"
	"testing"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/internal/strategy"
	"ai-hedge-fund/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	signal     string
	confidence float64
	err        error
}

func (a *fakeAI) GeneratePersonaSignal(_ context.Context, param dto.PersonaSignalParam) (*dto.PersonaSignalResponse, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &dto.PersonaSignalResponse{Signal: a.signal, Confidence: a.confidence, Reasoning: param.Name + " view"}, nil
}

type panickyProducer struct{}

func (panickyProducer) Produce(context.Context, model.FinancialRecord) model.Signal { panic("boom") }
func (panickyProducer) Name() string                                                { return "Panicky" }
func (panickyProducer) Persona() strategy.Persona                                   { return strategy.PersonaValue }

func analyzerMarket() *fakeMarketData {
	return &fakeMarketData{records: map[string]*model.FinancialRecord{
		"AAPL": {
			Ticker:          "AAPL",
			Price:           f(200),
			PERatio:         f(30),
			PBRatio:         f(45),
			ROE:             f(1.5),
			OperatingMargin: f(0.3),
			DebtToEquity:    f(1.5),
			Beta:            f(1.2),
			Sector:          "Technology",
		},
	}}
}

func TestAnalyzerService_RulesMode(t *testing.T) {
	svc := NewAnalyzerService(testConfig(), testLog, testValidator, analyzerMarket(), nil)

	got, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{Tickers: []string{"aapl", "NOPE"}})
	require.NoError(t, err)
	require.Len(t, got, 2)

	aapl := got[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.False(t, aapl.Failed())
	require.Len(t, aapl.Signals, len(strategy.Personas))
	assert.Equal(t, "Warren Buffett", aapl.Signals[0].Source)
	for _, s := range aapl.Signals {
		assert.Equal(t, model.ProducerRules, s.Producer)
	}
	assert.Equal(t, DataQualityPartial, aapl.DataQuality)
	assert.Contains(t, aapl.MissingFields, model.FieldSMA200)
	assert.True(t, aapl.Consensus.Direction.Valid())

	nope := got[1]
	assert.Equal(t, "NOPE", nope.Ticker)
	assert.False(t, nope.Failed(), "rules still produce low-confidence signals on an empty record")
	assert.Equal(t, DataQualityUnavailable, nope.DataQuality)
}

func TestAnalyzerService_Modes(t *testing.T) {
	tests := []struct {
		name      string
		ai        *fakeAI
		mode      string
		wantErr   error
		wantLLM   int
		wantTotal int
		wantFail  bool
	}{
		{name: "llm without model", mode: dto.ModeLLM, wantErr: common.ErrInvalidInput},
		{name: "unknown mode", mode: "magic", ai: &fakeAI{}, wantErr: common.ErrInvalidInput},
		{name: "llm", mode: dto.ModeLLM, ai: &fakeAI{signal: "bullish", confidence: 80}, wantLLM: len(strategy.LLMPersonas), wantTotal: len(strategy.LLMPersonas)},
		{name: "hybrid", mode: dto.ModeHybrid, ai: &fakeAI{signal: "bearish", confidence: 70}, wantLLM: len(strategy.LLMPersonas), wantTotal: len(strategy.Personas)},
		{name: "llm upstream down falls back to neutral", mode: dto.ModeLLM, ai: &fakeAI{err: common.ErrDataUnavailable}, wantLLM: len(strategy.LLMPersonas), wantTotal: len(strategy.LLMPersonas)},
		{name: "llm invalid answers leave nothing usable", mode: dto.ModeLLM, ai: &fakeAI{signal: "sideways", confidence: 90}, wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svc AnalyzerService
			if tt.ai != nil {
				svc = NewAnalyzerService(testConfig(), testLog, testValidator, analyzerMarket(), tt.ai)
			} else {
				svc = NewAnalyzerService(testConfig(), testLog, testValidator, analyzerMarket(), nil)
			}

			got, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{Tickers: []string{"AAPL"}, Mode: tt.mode})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			require.Len(t, got, 1)
			if tt.wantFail {
				assert.True(t, got[0].Failed())
				assert.Contains(t, got[0].Error, common.ErrNoUsableSignals.Error())
				return
			}

			var llm int
			for _, s := range got[0].Signals {
				if s.Producer == model.ProducerLLM {
					llm++
				}
			}
			assert.Len(t, got[0].Signals, tt.wantTotal)
			assert.Equal(t, tt.wantLLM, llm)
		})
	}
}

func TestAnalyzerService_Evaluate(t *testing.T) {
	svc := NewAnalyzerService(testConfig(), testLog, testValidator, analyzerMarket(), &fakeAI{signal: "bullish", confidence: 90})

	c, signals, err := svc.Evaluate(context.Background(), model.FinancialRecord{Ticker: "X"}, dto.ModeLLM)
	require.NoError(t, err)
	assert.Len(t, signals, len(strategy.LLMPersonas))
	assert.Equal(t, model.Bullish, c.Direction)
	assert.Equal(t, 90, c.Confidence)
}

func TestRunProducers_RecoversPanics(t *testing.T) {
	svc := NewAnalyzerService(testConfig(), testLog, testValidator, analyzerMarket(), nil).(*analyzerService)
	value, err := strategy.NewRuleProducer(strategy.PersonaValue)
	require.NoError(t, err)

	got := svc.runProducers(context.Background(), []strategy.SignalProducer{panickyProducer{}, value}, model.FinancialRecord{Ticker: "X"})
	require.Len(t, got, 1)
	assert.Equal(t, "Warren Buffett", got[0].Source)
}

func TestDataQuality(t *testing.T) {
	assert.Equal(t, DataQualityUnavailable, dataQuality(model.FinancialRecord{}))
	assert.Equal(t, DataQualityPartial, dataQuality(model.FinancialRecord{Price: f(1)}))
}
