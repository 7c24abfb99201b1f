package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
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

const (
	UpstreamYahoo = "yahoo_finance"

	quoteSummaryModules = "price,summaryDetail,financialData,defaultKeyStatistics,assetProfile,earningsHistory"
)

var yahooHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://finance.yahoo.com/",
}

type YahooFinanceRepository interface {
	// GetPriceHistory returns daily bars between From and To. Sessions without a close are skipped.
	GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) (*dto.PriceHistory, error)
	GetQuoteSummary(ctx context.Context, symbol string) (*dto.YahooQuoteSummary, error)
}

type yahooFinanceRepository struct {
	chartClient    httpclient.HTTPClient
	summaryClient  httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	breaker        *breaker.Breaker
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger, limiters *ratelimit.LimiterStore) YahooFinanceRepository {
	return &yahooFinanceRepository{
		chartClient:    httpclient.New(cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, httpclient.WithHeaders(yahooHeaders)),
		summaryClient:  httpclient.New(cfg.YahooFinance.SummaryBaseURL, cfg.YahooFinance.Timeout, httpclient.WithHeaders(yahooHeaders)),
		cfg:            cfg,
		logger:         log,
		requestLimiter: limiters.Register(UpstreamYahoo, cfg.YahooFinance.MaxRequestPerMinute),
		breaker:        breaker.New(UpstreamYahoo, cfg.Breaker, log),
	}
}

func (r *yahooFinanceRepository) wait(ctx context.Context) error {
	if !r.requestLimiter.Allow() {
		r.logger.DebugContext(ctx, "Yahoo Finance request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
		return r.requestLimiter.Wait(ctx)
	}
	return nil
}

func (r *yahooFinanceRepository) GetPriceHistory(ctx context.Context, param dto.GetPriceHistoryParam) (*dto.PriceHistory, error) {
	if param.Interval == "" {
		param.Interval = dto.Interval1Day
	}
	if !param.From.Before(param.To) {
		return nil, fmt.Errorf("invalid history range %s..%s: %w", param.From.Format(common.DATE_LAYOUT), param.To.Format(common.DATE_LAYOUT), common.ErrInvalidInput)
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"period1":        fmt.Sprintf("%d", param.From.Unix()),
		"period2":        fmt.Sprintf("%d", param.To.Unix()),
		"interval":       param.Interval,
		"includePrePost": "false",
		"events":         "div,split",
	}

	start := time.Now()
	yahooResp, err := breaker.Execute(r.breaker, func() (*dto.YahooChartResponse, error) {
		var out dto.YahooChartResponse
		resp, err := r.chartClient.Get(ctx, "/"+param.Symbol, queryParams, nil, &out)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chart from yahoo finance: %w", err)
		}
		// 404 means an unknown symbol, which says nothing about upstream health.
		if resp.StatusCode == http.StatusNotFound {
			return &out, nil
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("yahoo finance chart returned status: %d", resp.StatusCode)
		}
		return &out, nil
	})
	metrics.ObserveUpstream(UpstreamYahoo, "chart", start, err)
	if err != nil {
		r.logger.WarnContext(ctx, "Yahoo Finance chart request failed", logger.StringField("symbol", param.Symbol), logger.ErrorField(err))
		return nil, fmt.Errorf("%s chart: %v: %w", param.Symbol, err, common.ErrDataUnavailable)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("%s chart: %s: %w", param.Symbol, yahooResp.Chart.Error.Description, common.ErrDataUnavailable)
	}
	if len(yahooResp.Chart.Result) == 0 || len(yahooResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data returned for symbol %s: %w", param.Symbol, common.ErrDataUnavailable)
	}

	result := yahooResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	history := &dto.PriceHistory{
		Symbol:      param.Symbol,
		Currency:    result.Meta.Currency,
		Exchange:    result.Meta.ExchangeName,
		MarketPrice: result.Meta.RegularMarketPrice,
	}
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil || *quote.Close[i] <= 0 {
			continue
		}
		bar := dto.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		history.Bars = append(history.Bars, bar)
	}

	if result.Events != nil {
		for _, d := range result.Events.Dividends {
			if d.Amount <= 0 {
				continue
			}
			history.Dividends = append(history.Dividends, dto.DividendEvent{Date: time.Unix(d.Date, 0).UTC(), Amount: d.Amount})
		}
		sort.Slice(history.Dividends, func(i, j int) bool {
			return history.Dividends[i].Date.Before(history.Dividends[j].Date)
		})
	}

	if len(history.Bars) == 0 {
		return nil, fmt.Errorf("no valid closes for symbol %s: %w", param.Symbol, common.ErrDataUnavailable)
	}
	return history, nil
}

func (r *yahooFinanceRepository) GetQuoteSummary(ctx context.Context, symbol string) (*dto.YahooQuoteSummary, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	summaryResp, err := breaker.Execute(r.breaker, func() (*dto.YahooQuoteSummaryResponse, error) {
		var out dto.YahooQuoteSummaryResponse
		resp, err := r.summaryClient.Get(ctx, "/"+symbol, map[string]string{"modules": quoteSummaryModules}, nil, &out)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch quote summary from yahoo finance: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return &out, nil
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("yahoo finance quote summary returned status: %d", resp.StatusCode)
		}
		return &out, nil
	})
	metrics.ObserveUpstream(UpstreamYahoo, "quote_summary", start, err)
	if err != nil {
		if errors.Is(err, breaker.ErrOpen) {
			r.logger.WarnContext(ctx, "Yahoo Finance breaker open, skipping quote summary", logger.StringField("symbol", symbol))
		} else {
			r.logger.WarnContext(ctx, "Yahoo Finance quote summary request failed", logger.StringField("symbol", symbol), logger.ErrorField(err))
		}
		return nil, fmt.Errorf("%s quote summary: %v: %w", symbol, err, common.ErrDataUnavailable)
	}

	if e := summaryResp.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("%s quote summary: %s: %w", symbol, strings.TrimSpace(e.Description), common.ErrDataUnavailable)
	}
	if len(summaryResp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no quote summary for symbol %s: %w", symbol, common.ErrDataUnavailable)
	}
	return &summaryResp.QuoteSummary.Result[0], nil
}
