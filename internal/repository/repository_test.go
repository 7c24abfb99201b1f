package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/httpclient"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		YahooFinance: config.YahooFinance{
			BaseURL:        baseURL + "/chart",
			SummaryBaseURL: baseURL + "/summary",
			Timeout:        2 * time.Second,
		},
		AlphaVantage: config.AlphaVantage{
			BaseURL: baseURL,
			APIKey:  "demo",
			Timeout: 2 * time.Second,
		},
		Gemini: config.Gemini{
			BaseURL:           baseURL,
			APIKey:            "key",
			BaseModel:         "gemini-test",
			Timeout:           2 * time.Second,
			MaxTokenPerMinute: 100000,
		},
		Breaker: config.Breaker{
			MinRequests:         3,
			FailureRatio:        0.6,
			OpenTimeout:         time.Minute,
			HalfOpenMaxRequests: 1,
			CountInterval:       time.Minute,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestYahooFinanceRepository_GetPriceHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		writeJSON(w, http.StatusOK, `{"chart":{"result":[{
			"meta":{"symbol":"AAPL","currency":"USD","exchangeName":"NMS","regularMarketPrice":190.5},
			"timestamp":[1704153600,1704240000,1704326400,1704412800],
			"events":{"dividends":{
				"1715347800":{"amount":0.25,"date":1715347800},
				"1707489000":{"amount":0.24,"date":1707489000},
				"1699626600":{"amount":0,"date":1699626600}
			}},
			"indicators":{"quote":[{"close":[185.0,null,0,188.25],"volume":[1000,2000,3000,null]}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(testConfig(srv.URL), logger.NewNop(), ratelimit.NewLimiterStore())
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	got, err := repo.GetPriceHistory(context.Background(), dto.GetPriceHistoryParam{Symbol: "AAPL", From: to.AddDate(0, 0, -7), To: to})
	require.NoError(t, err)

	assert.Equal(t, "USD", got.Currency)
	require.NotNil(t, got.MarketPrice)
	assert.Equal(t, 190.5, *got.MarketPrice)
	require.Len(t, got.Bars, 2, "null and zero closes are skipped")
	assert.Equal(t, []float64{185.0, 188.25}, got.Closes())
	assert.Equal(t, []float64{1000, 0}, got.Volumes())
	require.Len(t, got.Dividends, 2, "zero dividends are skipped")
	assert.Equal(t, 0.24, got.Dividends[0].Amount)
	assert.Equal(t, time.Unix(1707489000, 0).UTC(), got.Dividends[0].Date)
	assert.Equal(t, 0.25, got.Dividends[1].Amount)

	_, err = repo.GetPriceHistory(context.Background(), dto.GetPriceHistoryParam{Symbol: "AAPL", From: to, To: to})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestYahooFinanceRepository_Failures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.HasPrefix(r.URL.Path, "/summary/NOPE") {
			writeJSON(w, http.StatusNotFound, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(testConfig(srv.URL), logger.NewNop(), ratelimit.NewLimiterStore())
	ctx := context.Background()

	_, err := repo.GetQuoteSummary(ctx, "NOPE")
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))

	for i := 0; i < 3; i++ {
		_, err = repo.GetQuoteSummary(ctx, "MSFT")
		assert.True(t, errors.Is(err, common.ErrDataUnavailable))
	}
	before := calls
	_, err = repo.GetQuoteSummary(ctx, "MSFT")
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
	assert.Equal(t, before, calls, "breaker should be open")
}

func TestYahooFinanceRepository_GetQuoteSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("modules"), "financialData")
		writeJSON(w, http.StatusOK, `{"quoteSummary":{"result":[{
			"financialData":{"returnOnEquity":{"raw":1.47,"fmt":"147%"},"recommendationKey":"buy","debtToEquity":{}},
			"assetProfile":{"sector":"Technology","industry":"Consumer Electronics"}
		}],"error":null}}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(testConfig(srv.URL), logger.NewNop(), ratelimit.NewLimiterStore())
	got, err := repo.GetQuoteSummary(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, got.FinancialData)
	require.NotNil(t, got.FinancialData.ReturnOnEquity.Raw)
	assert.Equal(t, 1.47, *got.FinancialData.ReturnOnEquity.Raw)
	assert.Nil(t, got.FinancialData.DebtToEquity.Raw)
	assert.Equal(t, "buy", got.FinancialData.RecommendationKey)
	assert.Equal(t, "Technology", got.AssetProfile.Sector)
	assert.Nil(t, got.SummaryDetail)
}

func TestAlphaVantageRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "demo", q.Get("apikey"))
		switch {
		case q.Get("symbol") == "LIMIT":
			writeJSON(w, http.StatusOK, `{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`)
		case q.Get("function") == "OVERVIEW":
			writeJSON(w, http.StatusOK, `{"Symbol":"IBM","Sector":"TECHNOLOGY","PERatio":"22.5","PEGRatio":"None","PriceToBookRatio":"-","ReturnOnEquityTTM":"0.31","Beta":""}`)
		case q.Get("function") == "GLOBAL_QUOTE":
			writeJSON(w, http.StatusOK, `{"Global Quote":{"01. symbol":"IBM","05. price":"171.2000"}}`)
		}
	}))
	defer srv.Close()

	repo := NewAlphaVantageRepository(testConfig(srv.URL), logger.NewNop(), ratelimit.NewLimiterStore())
	require.True(t, repo.Enabled())

	got, err := repo.GetFundamentals(context.Background(), "IBM")
	require.NoError(t, err)
	require.NotNil(t, got.PERatio)
	assert.Equal(t, 22.5, *got.PERatio)
	assert.Nil(t, got.PEGRatio)
	assert.Nil(t, got.PBRatio)
	assert.Nil(t, got.Beta)
	require.NotNil(t, got.Price)
	assert.Equal(t, 171.2, *got.Price)
	assert.Equal(t, "Technology", got.Sector)

	_, err = repo.GetFundamentals(context.Background(), "LIMIT")
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))

	cfg := testConfig(srv.URL)
	cfg.AlphaVantage.APIKey = ""
	disabled := NewAlphaVantageRepository(cfg, logger.NewNop(), ratelimit.NewLimiterStore())
	assert.False(t, disabled.Enabled())
}

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{in: "None"},
		{in: "-"},
		{in: ""},
		{in: "abc"},
		{in: " 1.5 ", want: func() *float64 { v := 1.5; return &v }()},
		{in: "-0.25", want: func() *float64 { v := -0.25; return &v }()},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, safeFloat(tt.in))
		})
	}
}

type fakeCounter struct {
	tokens int
	err    error
}

func (f fakeCounter) CountTokens(context.Context, string, string) (int, error) {
	return f.tokens, f.err
}

func geminiAnswer(text string) string {
	raw, _ := json.Marshal(dto.GeminiAPIResponse{Candidates: []dto.Candidate{{Content: dto.Content{Parts: []dto.Part{{Text: text}}}}}})
	return string(raw)
}

func TestGeminiAIRepository_GeneratePersonaSignal(t *testing.T) {
	answers := map[string]string{
		"GOOD":  geminiAnswer("```json\n{\"signal\": \"Bullish\", \"confidence\": 72, \"reasoning\": \"ROE of 30%\", \"keyMetrics\": {\"roe\": 0.3}}\n```"),
		"PROSE": geminiAnswer("I think it is fine."),
		"RANGE": geminiAnswer(`{"signal": "bullish", "confidence": 140, "reasoning": "x"}`),
	}
	var lastPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"))

		var req dto.GeminiAPIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		lastPrompt = req.Contents[0].Parts[0].Text

		for ticker, answer := range answers {
			if strings.Contains(lastPrompt, "ANALYZE: "+ticker+"\n") {
				writeJSON(w, http.StatusOK, answer)
				return
			}
		}
		writeJSON(w, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	repo := newGeminiAIRepository(cfg, logger.NewNop(), httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout), fakeCounter{tokens: 120}, ratelimit.NewLimiterStore())
	param := func(ticker string) dto.PersonaSignalParam {
		return dto.PersonaSignalParam{Persona: "value", Name: "Warren Buffett", Philosophy: "Wonderful companies at fair prices.", Ticker: ticker, Facts: []string{"ROE: 30.0%"}}
	}
	ctx := context.Background()

	got, err := repo.GeneratePersonaSignal(ctx, param("GOOD"))
	require.NoError(t, err)
	assert.Equal(t, "bullish", got.Signal)
	assert.Equal(t, 72.0, got.Confidence)
	assert.Equal(t, "ROE of 30%", got.Reasoning)
	assert.Contains(t, lastPrompt, "You are Warren Buffett")
	assert.Contains(t, lastPrompt, "ROE: 30.0%")
	assert.Equal(t, 100000-120, repo.tokenLimiter.GetRemaining())

	_, err = repo.GeneratePersonaSignal(ctx, param("PROSE"))
	assert.True(t, errors.Is(err, common.ErrParseFailure))

	_, err = repo.GeneratePersonaSignal(ctx, param("RANGE"))
	assert.True(t, errors.Is(err, common.ErrParseFailure))

	_, err = repo.GeneratePersonaSignal(ctx, param("DOWN"))
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
}

func TestGeminiAIRepository_ErrorsDoNotExposeKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := testConfig(srv.URL)
	cfg.Gemini.APIKey = "SECRET-GEMINI-KEY"
	srv.Close()

	repo := newGeminiAIRepository(cfg, logger.NewNop(), httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout), fakeCounter{tokens: 10}, ratelimit.NewLimiterStore())
	_, err := repo.GeneratePersonaSignal(context.Background(), dto.PersonaSignalParam{Persona: "value", Name: "Warren Buffett", Ticker: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
	assert.NotContains(t, err.Error(), cfg.Gemini.APIKey)
}

func TestNewGeminiAIRepository_RequiresKey(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Gemini.APIKey = ""
	_, err := NewGeminiAIRepository(cfg, logger.NewNop(), ratelimit.NewLimiterStore())
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
