package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/internal/model"
	"ai-hedge-fund/internal/repository"
	"ai-hedge-fund/internal/strategy"
	"ai-hedge-fund/pkg/cache"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/indicator"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/metrics"
	"ai-hedge-fund/pkg/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	keyMacroCache     = "macro:%s"
	keyDividendsCache = "dividends:%s:%s"

	historyLookbackDays   = 365
	macroLookbackDays     = 45
	trendLookback         = 10
	avgVolumeWindow       = 20
	rsiPeriod             = 14
	dividendLookbackYears = 26
	dividendGrowthYears   = 5
)

// MacroSnapshot is the market backdrop shared by every ticker analysed on one day.
type MacroSnapshot struct {
	VIX         *float64 `json:"vix"`
	SPYTrend10D *float64 `json:"spy_trend_10d"`
	Regime      string   `json:"regime"`
}

type MarketDataService interface {
	// GetRecord assembles a snapshot for ticker. The record is always returned; the error
	// wraps ErrDataUnavailable only when neither prices nor fundamentals could be fetched.
	GetRecord(ctx context.Context, ticker string) (*model.FinancialRecord, error)
	GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (*dto.PriceHistory, error)
	GetMacroSnapshot(ctx context.Context) (*MacroSnapshot, error)
}

type marketDataService struct {
	cfg              *config.Config
	log              *logger.Logger
	cache            cache.Cache
	yahooFinanceRepo repository.YahooFinanceRepository
	alphaVantageRepo repository.AlphaVantageRepository
	macroGroup       singleflight.Group
}

func NewMarketDataService(
	cfg *config.Config,
	log *logger.Logger,
	cache cache.Cache,
	yahooFinanceRepo repository.YahooFinanceRepository,
	alphaVantageRepo repository.AlphaVantageRepository,
) MarketDataService {
	return &marketDataService{
		cfg:              cfg,
		log:              log,
		cache:            cache,
		yahooFinanceRepo: yahooFinanceRepo,
		alphaVantageRepo: alphaVantageRepo,
	}
}

func (s *marketDataService) GetRecord(ctx context.Context, ticker string) (*model.FinancialRecord, error) {
	asOf := utils.Today()
	cacheKey := fmt.Sprintf(common.KEY_RECORD_CACHE, ticker, utils.FormatDate(asOf))

	if cached, ok := cache.GetFromCache[model.FinancialRecord](ctx, s.cache, cacheKey); ok {
		metrics.RecordCacheLookup(true)
		s.log.DebugContext(ctx, "Record served from cache", logger.StringField("ticker", ticker))
		return &cached, nil
	}
	metrics.RecordCacheLookup(false)

	var (
		history         *dto.PriceHistory
		summary         *dto.YahooQuoteSummary
		fundamentals    *dto.AlphaVantageFundamentals
		macro           *MacroSnapshot
		historyErr      error
		summaryErr      error
		fundamentalsErr error
		macroErr        error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		history, historyErr = s.GetPriceHistory(gctx, ticker, asOf.AddDate(0, 0, -historyLookbackDays), asOf.AddDate(0, 0, 1))
		return nil
	})
	g.Go(func() error {
		summary, summaryErr = s.yahooFinanceRepo.GetQuoteSummary(gctx, ticker)
		return nil
	})
	if s.alphaVantageRepo != nil && s.alphaVantageRepo.Enabled() {
		g.Go(func() error {
			fundamentals, fundamentalsErr = s.alphaVantageRepo.GetFundamentals(gctx, ticker)
			return nil
		})
	}
	g.Go(func() error {
		macro, macroErr = s.GetMacroSnapshot(gctx)
		return nil
	})
	_ = g.Wait()

	record := buildRecord(ticker, asOf, history, summary, fundamentals, macro)

	for _, failure := range []struct {
		source string
		err    error
	}{
		{"price history", historyErr},
		{"quote summary", summaryErr},
		{"alpha vantage", fundamentalsErr},
		{"macro snapshot", macroErr},
	} {
		if failure.err == nil {
			continue
		}
		s.log.WarnContext(ctx, "Upstream data unavailable, continuing with partial record",
			logger.StringField("ticker", ticker),
			logger.StringField("source", failure.source),
			logger.ErrorField(failure.err),
		)
		record.Warnings = append(record.Warnings, fmt.Sprintf("%s unavailable: %v", failure.source, failure.err))
	}

	if paysDividend(record) {
		if dividends, err := s.getDividendHistory(ctx, ticker, asOf); err != nil {
			s.log.WarnContext(ctx, "Dividend history unavailable", logger.StringField("ticker", ticker), logger.ErrorField(err))
			record.Warnings = append(record.Warnings, fmt.Sprintf("dividend history unavailable: %v", err))
		} else {
			applyDividendHistory(&record, dividends, asOf)
		}
	}

	if record.IsEmpty() {
		metrics.RecordAnalysisFailure("data_unavailable")
		return &record, fmt.Errorf("no market data for %s: %w", ticker, common.ErrDataUnavailable)
	}

	if err := s.cache.Set(ctx, cacheKey, record, s.cfg.Cache.RecordTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to cache record", logger.StringField("ticker", ticker), logger.ErrorField(err))
	}
	return &record, nil
}

func (s *marketDataService) GetPriceHistory(ctx context.Context, ticker string, from, to time.Time) (*dto.PriceHistory, error) {
	cacheKey := fmt.Sprintf(common.KEY_HISTORY, ticker, utils.FormatDate(from), utils.FormatDate(to))
	if cached, ok := cache.GetFromCache[dto.PriceHistory](ctx, s.cache, cacheKey); ok {
		metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	metrics.RecordCacheLookup(false)

	history, err := s.yahooFinanceRepo.GetPriceHistory(ctx, dto.GetPriceHistoryParam{
		Symbol:   ticker,
		From:     from,
		To:       to,
		Interval: dto.Interval1Day,
	})
	if err != nil {
		return nil, err
	}
	if len(history.Bars) == 0 {
		return nil, fmt.Errorf("empty price history for %s: %w", ticker, common.ErrDataUnavailable)
	}

	if err := s.cache.Set(ctx, cacheKey, history, s.cfg.Cache.RecordTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to cache price history", logger.StringField("ticker", ticker), logger.ErrorField(err))
	}
	return history, nil
}

// getDividendHistory returns the dividend events since January of the first lookback year,
// so every calendar year in the window is complete except the current one.
func (s *marketDataService) getDividendHistory(ctx context.Context, ticker string, asOf time.Time) ([]dto.DividendEvent, error) {
	cacheKey := fmt.Sprintf(keyDividendsCache, ticker, utils.FormatDate(asOf))
	if cached, ok := cache.GetFromCache[[]dto.DividendEvent](ctx, s.cache, cacheKey); ok {
		return cached, nil
	}

	history, err := s.yahooFinanceRepo.GetPriceHistory(ctx, dto.GetPriceHistoryParam{
		Symbol:   ticker,
		From:     time.Date(asOf.Year()-dividendLookbackYears, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:       asOf.AddDate(0, 0, 1),
		Interval: dto.Interval1Month,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, history.Dividends, s.cfg.Cache.RecordTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to cache dividend history", logger.StringField("ticker", ticker), logger.ErrorField(err))
	}
	return history.Dividends, nil
}

// GetMacroSnapshot is computed once per day; concurrent callers share one fetch.
func (s *marketDataService) GetMacroSnapshot(ctx context.Context) (*MacroSnapshot, error) {
	today := utils.Today()
	cacheKey := fmt.Sprintf(keyMacroCache, utils.FormatDate(today))
	if cached, ok := cache.GetFromCache[MacroSnapshot](ctx, s.cache, cacheKey); ok {
		return &cached, nil
	}

	v, err, _ := s.macroGroup.Do(cacheKey, func() (interface{}, error) {
		return s.fetchMacroSnapshot(ctx, today, cacheKey)
	})
	snapshot, _ := v.(*MacroSnapshot)
	return snapshot, err
}

func (s *marketDataService) fetchMacroSnapshot(ctx context.Context, today time.Time, cacheKey string) (*MacroSnapshot, error) {

	from, to := today.AddDate(0, 0, -macroLookbackDays), today.AddDate(0, 0, 1)
	snapshot := &MacroSnapshot{}
	var errs []error

	if vix, err := s.GetPriceHistory(ctx, common.VIX_TICKER, from, to); err != nil {
		errs = append(errs, fmt.Errorf("vix: %w", err))
	} else {
		closes := vix.Closes()
		snapshot.VIX = utils.ToPointer(closes[len(closes)-1])
	}

	if spy, err := s.GetPriceHistory(ctx, common.BENCHMARK_TICKER, from, to); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", common.BENCHMARK_TICKER, err))
	} else if trend := indicator.PeriodReturn(spy.Closes(), trendLookback); trend != nil {
		snapshot.SPYTrend10D = utils.ToPointer(utils.RoundTo(*trend*100, 2))
	}

	if snapshot.VIX == nil && snapshot.SPYTrend10D == nil {
		return nil, fmt.Errorf("macro snapshot: %w", errors.Join(append(errs, common.ErrDataUnavailable)...))
	}
	snapshot.Regime = strategy.MarketRegime(snapshot.SPYTrend10D, snapshot.VIX)

	if err := s.cache.Set(ctx, cacheKey, snapshot, s.cfg.Cache.RecordTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to cache macro snapshot", logger.ErrorField(err))
	}
	return snapshot, errors.Join(errs...)
}

// buildRecord merges every source into one record. Alpha Vantage values override Yahoo
// valuation fields; nothing absent upstream is ever defaulted to zero.
func buildRecord(
	ticker string,
	asOf time.Time,
	history *dto.PriceHistory,
	summary *dto.YahooQuoteSummary,
	fundamentals *dto.AlphaVantageFundamentals,
	macro *MacroSnapshot,
) model.FinancialRecord {
	r := model.FinancialRecord{Ticker: ticker, AsOf: asOf}

	if history != nil && len(history.Bars) > 0 {
		applyHistory(&r, history)
		r.DataSources = append(r.DataSources, common.SOURCE_YAHOO)
	}
	if summary != nil {
		applyQuoteSummary(&r, summary)
		if !utils.ContainsString(r.DataSources, common.SOURCE_YAHOO) {
			r.DataSources = append(r.DataSources, common.SOURCE_YAHOO)
		}
	}
	if fundamentals != nil {
		applyAlphaVantage(&r, fundamentals)
		r.DataSources = append(r.DataSources, common.SOURCE_ALPHA_VANTAGE)
	}
	if macro != nil {
		r.VIX = macro.VIX
		r.SPYTrend10D = macro.SPYTrend10D
		r.MarketRegime = macro.Regime
	}
	if r.TargetPrice != nil && r.Price != nil && *r.Price > 0 {
		upside := (*r.TargetPrice/(*r.Price) - 1) * 100
		r.UpsidePct = utils.ToPointer(utils.RoundTo(upside, 2))
	}
	return r
}

func paysDividend(r model.FinancialRecord) bool {
	return (r.DividendYield != nil && *r.DividendYield > 0) || (r.DividendRate != nil && *r.DividendRate > 0)
}

// applyDividendHistory derives the 5-year dividend CAGR and the run of consecutive annual
// increases from complete calendar years. Fields stay nil when the history cannot tell.
func applyDividendHistory(r *model.FinancialRecord, events []dto.DividendEvent, asOf time.Time) {
	totals := map[int]float64{}
	for _, e := range events {
		if y := e.Date.Year(); y < asOf.Year() {
			totals[y] += e.Amount
		}
	}

	last := asOf.Year() - 1
	if totals[last] <= 0 {
		return
	}

	if base := totals[last-dividendGrowthYears]; base > 0 {
		cagr := math.Pow(totals[last]/base, 1.0/dividendGrowthYears) - 1
		r.DividendGrowth5Y = utils.ToPointer(utils.RoundTo(cagr*100, 2))
	}

	years := 0
	for y := last; totals[y-1] > 0 && totals[y] > totals[y-1]; y-- {
		years++
	}
	r.ConsecutiveYears = utils.ToPointer(years)
}

func applyHistory(r *model.FinancialRecord, h *dto.PriceHistory) {
	closes := h.Closes()
	volumes := h.Volumes()

	r.Currency = h.Currency
	r.Price = h.MarketPrice
	if r.Price == nil {
		r.Price = utils.ToPointer(closes[len(closes)-1])
	}
	r.SMA50 = indicator.SMA(closes, 50)
	r.SMA200 = indicator.SMA(closes, 200)
	r.RSI14 = indicator.RSI(closes, rsiPeriod)
	if v := volumes[len(volumes)-1]; v > 0 {
		r.Volume = utils.ToPointer(v)
	}
	r.AvgVolume20 = indicator.AverageTail(volumes, avgVolumeWindow)
	r.Return1Y = indicator.TotalReturn(closes)
	r.Volatility = indicator.AnnualizedVolatility(closes)
}

func applyQuoteSummary(r *model.FinancialRecord, q *dto.YahooQuoteSummary) {
	if p := q.Price; p != nil {
		setIfPresent(&r.Price, p.RegularMarketPrice.Raw)
		r.MarketCap = p.MarketCap.Raw
		if r.Currency == "" {
			r.Currency = p.Currency
		}
	}

	if d := q.SummaryDetail; d != nil {
		r.PERatio = d.TrailingPE.Raw
		r.ForwardPE = d.ForwardPE.Raw
		r.Beta = d.Beta.Raw
		r.PriceToSales = d.PriceToSalesTrailing12Months.Raw
		setIfPresent(&r.MarketCap, d.MarketCap.Raw)
		r.DividendRate = d.DividendRate.Raw
		r.DividendYield = percent(d.DividendYield.Raw)
		r.PayoutRatio = percent(d.PayoutRatio.Raw)
		// A loaded summary without any dividend figure means the company does not pay one.
		if r.DividendYield == nil && r.DividendRate == nil {
			r.DividendYield = utils.ToPointer(0.0)
		}
	}

	if f := q.FinancialData; f != nil {
		setIfPresent(&r.Price, f.CurrentPrice.Raw)
		r.TargetPrice = f.TargetMeanPrice.Raw
		r.AnalystRating = strings.ToLower(strings.TrimSpace(f.RecommendationKey))
		if r.AnalystRating == "none" {
			r.AnalystRating = ""
		}
		if n := f.NumberOfAnalystOpinions.Raw; n != nil {
			r.AnalystCount = utils.ToPointer(int(*n))
		}
		r.ROE = f.ReturnOnEquity.Raw
		r.ROA = f.ReturnOnAssets.Raw
		// Yahoo reports debt/equity as a percentage.
		if de := f.DebtToEquity.Raw; de != nil {
			r.DebtToEquity = utils.ToPointer(*de / 100)
		}
		r.CurrentRatio = f.CurrentRatio.Raw
		r.QuickRatio = f.QuickRatio.Raw
		r.OperatingMargin = f.OperatingMargins.Raw
		r.GrossMargin = f.GrossMargins.Raw
		r.ProfitMargin = f.ProfitMargins.Raw
		r.RevenueGrowth = f.RevenueGrowth.Raw
		r.EarningsGrowth = f.EarningsGrowth.Raw
		if fcf := f.FreeCashflow.Raw; fcf != nil {
			r.FreeCashFlow = utils.ToPointer(*fcf / 1e6)
		}
	}

	if k := q.DefaultKeyStatistics; k != nil {
		r.PBRatio = k.PriceToBook.Raw
		r.PEGRatio = k.PegRatio.Raw
		setIfPresent(&r.ForwardPE, k.ForwardPE.Raw)
		if r.Beta == nil {
			r.Beta = k.Beta.Raw
		}
	}

	if a := q.AssetProfile; a != nil {
		r.Sector = a.Sector
		r.Industry = a.Industry
		r.Description = a.LongBusinessSummary
	}

	if e := q.EarningsHistory; e != nil {
		applyEarnings(r, e.History)
	}
}

// applyEarnings uses only quarters that have actually been reported. Rows for upcoming
// quarters carry an estimate without an actual and must not be taken as the latest result.
func applyEarnings(r *model.FinancialRecord, rows []dto.YahooEarningsRow) {
	var reported []dto.YahooEarningsRow
	for _, row := range rows {
		if row.EpsActual.Raw != nil {
			reported = append(reported, row)
		}
	}
	if len(reported) == 0 {
		return
	}

	latest := reported[len(reported)-1]
	r.ReportedEPS = latest.EpsActual.Raw
	r.EstimatedEPS = latest.EpsEstimate.Raw
	switch {
	case latest.SurprisePercent.Raw != nil:
		r.SurprisePct = utils.ToPointer(utils.RoundTo(*latest.SurprisePercent.Raw*100, 2))
	case latest.EpsEstimate.Raw != nil && *latest.EpsEstimate.Raw != 0:
		est := *latest.EpsEstimate.Raw
		surprise := (*latest.EpsActual.Raw - est) / abs(est)
		r.SurprisePct = utils.ToPointer(utils.RoundTo(surprise*100, 2))
	}

	if len(reported) > 4 {
		reported = reported[len(reported)-4:]
	}
	beats := 0
	for _, row := range reported {
		if row.EpsEstimate.Raw != nil && *row.EpsActual.Raw > *row.EpsEstimate.Raw {
			beats++
		}
	}
	r.BeatsLast4Q = utils.ToPointer(beats)
}

func applyAlphaVantage(r *model.FinancialRecord, f *dto.AlphaVantageFundamentals) {
	setIfPresent(&r.Price, f.Price)
	setIfPresent(&r.MarketCap, f.MarketCap)
	setIfPresent(&r.PERatio, f.PERatio)
	setIfPresent(&r.ForwardPE, f.ForwardPE)
	setIfPresent(&r.PBRatio, f.PBRatio)
	setIfPresent(&r.PEGRatio, f.PEGRatio)
	setIfPresent(&r.PriceToSales, f.PriceToSales)
	setIfPresent(&r.ROE, f.ROE)
	setIfPresent(&r.ROA, f.ROA)
	setIfPresent(&r.OperatingMargin, f.OpMargin)
	setIfPresent(&r.ProfitMargin, f.ProfitMargin)
	setIfPresent(&r.Beta, f.Beta)
	setIfPresent(&r.TargetPrice, f.TargetPrice)
	if r.Sector == "" {
		r.Sector = f.Sector
	}
	if r.Industry == "" {
		r.Industry = f.Industry
	}
	if r.Description == "" {
		r.Description = f.Description
	}
}

func setIfPresent(dst **float64, v *float64) {
	if v != nil {
		*dst = v
	}
}

// percent normalises ratios that upstreams report either as fractions or as percentages.
func percent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if *v <= 1 {
		return utils.ToPointer(*v * 100)
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
