package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMarket(t *testing.T) {
	tests := []struct {
		symbol    string
		wantCode  string
		wantLocal string
		wantYahoo string
	}{
		{symbol: "aapl", wantCode: "US", wantLocal: "AAPL", wantYahoo: "AAPL"},
		{symbol: "600519", wantCode: "SS", wantLocal: "600519", wantYahoo: "600519.SS"},
		{symbol: "000001", wantCode: "SZ", wantLocal: "000001", wantYahoo: "000001.SZ"},
		{symbol: "700", wantCode: "HK", wantLocal: "0700", wantYahoo: "0700.HK"},
		{symbol: "700.HK", wantCode: "HK", wantLocal: "0700", wantYahoo: "0700.HK"},
		{symbol: "BHP.AX", wantCode: "AU", wantLocal: "BHP", wantYahoo: "BHP.AX"},
		{symbol: "VOD.L", wantCode: "L", wantLocal: "VOD", wantYahoo: "VOD.L"},
		{symbol: "7203.T", wantCode: "T", wantLocal: "7203", wantYahoo: "7203.T"},
		{symbol: "SAP.DE", wantCode: "DE", wantLocal: "SAP", wantYahoo: "SAP.DE"},
		{symbol: "BRK-B", wantCode: "US", wantLocal: "BRK-B", wantYahoo: "BRK-B"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			code, local := DetectMarket(tt.symbol)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantLocal, local)
			assert.Equal(t, tt.wantYahoo, YahooSymbol(tt.symbol))
		})
	}
}

func TestConvertCurrency(t *testing.T) {
	got, rate, err := ConvertCurrency(1000, "cny", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 140, got, 1e-9)
	assert.InDelta(t, 0.14, rate, 1e-12)

	got, _, err = ConvertCurrency(109, "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-9)

	_, _, err = ConvertCurrency(1, "USD", "XXX")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestIsOpen(t *testing.T) {
	us := markets["US"]
	assert.True(t, isOpen(us, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)))
	assert.False(t, isOpen(us, time.Date(2024, 1, 3, 22, 0, 0, 0, time.UTC)))
	assert.False(t, isOpen(us, time.Date(2024, 1, 6, 15, 0, 0, 0, time.UTC)))

	tokyo := markets["T"]
	assert.True(t, isOpen(tokyo, time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)))
	assert.False(t, isOpen(tokyo, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)))
}

func TestGlobalService_Markets(t *testing.T) {
	svc := NewGlobalService(testLog, testValidator, &fakeAnalyzer{}, &fakeMarketData{}).(*globalService)
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC) }

	got := svc.Markets()
	require.Len(t, got, len(markets))
	assert.Equal(t, "AU", got[0].Code)
	for _, m := range got {
		if m.Code == "US" {
			assert.True(t, m.IsOpen)
		}
	}
}

func TestGlobalService_Convert(t *testing.T) {
	svc := NewGlobalService(testLog, testValidator, &fakeAnalyzer{}, &fakeMarketData{})

	got, err := svc.Convert(context.Background(), dto.ConvertRequest{Amount: 100, From: "hkd", To: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "HKD", got.From)
	assert.Equal(t, 13.0, got.Converted)

	_, err = svc.Convert(context.Background(), dto.ConvertRequest{Amount: 100, From: "HKDX", To: "USD"})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestGlobalService_Analyze(t *testing.T) {
	analyzer := &fakeAnalyzer{
		consensus: map[string]model.Consensus{"0700.HK": consensusOf(model.Bullish, 70)},
		records:   map[string]*model.FinancialRecord{"0700.HK": {Ticker: "0700.HK", Price: f(300), Currency: "HKD"}},
	}
	svc := NewGlobalService(testLog, testValidator, analyzer, &fakeMarketData{})

	got, err := svc.Analyze(context.Background(), "700", dto.ModeRules)
	require.NoError(t, err)
	assert.Equal(t, "0700.HK", got.Symbol)
	assert.Equal(t, "HK", got.Market.Code)
	require.NotNil(t, got.PriceUSD)
	assert.InDelta(t, 39, *got.PriceUSD, 1e-9)
	assert.InDelta(t, 3900, *got.LotValueUSD, 1e-9)

	_, err = svc.Analyze(context.Background(), "600519", dto.ModeRules)
	assert.True(t, errors.Is(err, common.ErrNoUsableSignals))
}

func TestGlobalService_MarketSummary(t *testing.T) {
	closes := dailyHistory("^GSPC", utils.Today().AddDate(0, 0, -20), 10, func(i int) float64 { return 100 + float64(i) })
	market := &fakeMarketData{histories: map[string]*dto.PriceHistory{"^GSPC": closes}}
	svc := NewGlobalService(testLog, testValidator, &fakeAnalyzer{}, market)
	ctx := context.Background()

	got, err := svc.MarketSummary(ctx, "us")
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", got.IndexSymbol)
	require.NotNil(t, got.IndexLevel)
	assert.Equal(t, 109.0, *got.IndexLevel)
	assert.Equal(t, 0.0093, *got.DailyChange)

	noIndex, err := svc.MarketSummary(ctx, "SI")
	require.NoError(t, err)
	assert.Nil(t, noIndex.IndexLevel)

	missing, err := svc.MarketSummary(ctx, "HK")
	require.NoError(t, err)
	assert.Nil(t, missing.IndexLevel)

	_, err = svc.MarketSummary(ctx, "XX")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
