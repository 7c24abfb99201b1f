package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/breaker"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/httpclient"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/metrics"
	"ai-hedge-fund/pkg/ratelimit"

	"golang.org/x/time/rate"
)

const UpstreamAlphaVantage = "alpha_vantage"

type AlphaVantageRepository interface {
	// Enabled is false when no API key is configured; callers then skip the source entirely.
	Enabled() bool
	GetFundamentals(ctx context.Context, symbol string) (*dto.AlphaVantageFundamentals, error)
}

type alphaVantageRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	breaker        *breaker.Breaker
}

func NewAlphaVantageRepository(cfg *config.Config, log *logger.Logger, limiters *ratelimit.LimiterStore) AlphaVantageRepository {
	return &alphaVantageRepository{
		httpClient:     httpclient.New(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: limiters.Register(UpstreamAlphaVantage, cfg.AlphaVantage.MaxRequestPerMinute),
		breaker:        breaker.New(UpstreamAlphaVantage, cfg.Breaker, log),
	}
}

func (r *alphaVantageRepository) Enabled() bool {
	return r.cfg.AlphaVantage.APIKey != ""
}

func (r *alphaVantageRepository) GetFundamentals(ctx context.Context, symbol string) (*dto.AlphaVantageFundamentals, error) {
	if !r.Enabled() {
		return nil, fmt.Errorf("alpha vantage api key not configured: %w", common.ErrDataUnavailable)
	}

	var overview dto.AlphaVantageOverview
	if err := r.query(ctx, "OVERVIEW", symbol, &overview); err != nil {
		return nil, err
	}
	if msg := firstNonEmpty(overview.Note, overview.Information); msg != "" {
		r.logger.WarnContext(ctx, "Alpha Vantage API limit", logger.StringField("note", msg))
		return nil, fmt.Errorf("alpha vantage: %s: %w", msg, common.ErrDataUnavailable)
	}

	out := &dto.AlphaVantageFundamentals{
		MarketCap:    safeFloat(overview.MarketCap),
		PERatio:      safeFloat(overview.PERatio),
		ForwardPE:    safeFloat(overview.ForwardPE),
		PBRatio:      safeFloat(overview.PriceToBookRatio),
		PEGRatio:     safeFloat(overview.PEGRatio),
		PriceToSales: safeFloat(overview.PriceToSales),
		ROE:          safeFloat(overview.ReturnOnEquityTTM),
		ROA:          safeFloat(overview.ReturnOnAssetsTTM),
		OpMargin:     safeFloat(overview.OperatingMargin),
		ProfitMargin: safeFloat(overview.ProfitMargin),
		Beta:         safeFloat(overview.Beta),
		TargetPrice:  safeFloat(overview.AnalystTarget),
		Sector:       titleCase(overview.Sector),
		Industry:     titleCase(overview.Industry),
		Description:  truncateText(overview.Description, 1000),
	}

	var quote dto.AlphaVantageGlobalQuote
	if err := r.query(ctx, "GLOBAL_QUOTE", symbol, &quote); err != nil {
		// The overview alone is still useful.
		r.logger.WarnContext(ctx, "Alpha Vantage quote unavailable", logger.StringField("symbol", symbol), logger.ErrorField(err))
		return out, nil
	}
	out.Price = safeFloat(quote.GlobalQuote.Price)

	return out, nil
}

func (r *alphaVantageRepository) query(ctx context.Context, function, symbol string, dest interface{}) error {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return err
	}

	params := map[string]string{
		"function": function,
		"symbol":   symbol,
		"apikey":   r.cfg.AlphaVantage.APIKey,
	}

	start := time.Now()
	_, err := breaker.Execute(r.breaker, func() (struct{}, error) {
		resp, err := r.httpClient.Get(ctx, "/query", params, nil, dest)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to fetch %s from alpha vantage: %w", function, err)
		}
		if !resp.IsSuccess() {
			return struct{}{}, fmt.Errorf("alpha vantage %s returned status: %d", function, resp.StatusCode)
		}
		return struct{}{}, nil
	})
	metrics.ObserveUpstream(UpstreamAlphaVantage, strings.ToLower(function), start, err)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", symbol, function, err, common.ErrDataUnavailable)
	}
	return nil
}

// safeFloat parses Alpha Vantage numeric strings; "None", "-" and "" mean absent.
func safeFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "-", "null":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// titleCase turns "TECHNOLOGY" into "Technology" so sectors match Yahoo's spelling.
func titleCase(s string) string {
	if s == "" || s == "None" {
		return ""
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
