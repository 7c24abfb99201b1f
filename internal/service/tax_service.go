package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-hedge-fund/config"
	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	TermShort = "short"
	TermLong  = "long"

	longTermDays       = 365
	washSaleWindowDays = 30
	highShortTermGains = 10000
	taxPriceWorkers    = 4
)

var replacementETFs = map[string][]string{
	"Technology":             {"VGT", "XLK", "QQQ"},
	"Healthcare":             {"VHT", "XLV", "IHI"},
	"Financial Services":     {"VFH", "XLF", "KRE"},
	"Financials":             {"VFH", "XLF", "KRE"},
	"Consumer Cyclical":      {"XLY", "VCR"},
	"Consumer Discretionary": {"XLY", "VCR"},
	"Industrials":            {"VIS", "XLI"},
	"Energy":                 {"VDE", "XLE"},
	"Real Estate":            {"VNQ", "XLRE"},
	"Basic Materials":        {"VAW", "XLB"},
	"Materials":              {"VAW", "XLB"},
	"Utilities":              {"VPU", "XLU"},
	"Communication Services": {"VOX", "XLC"},
}

var broadMarketETFs = []string{"VTI", "VOO", "SPY"}

type TaxService interface {
	Analyze(ctx context.Context, req dto.TaxRequest) (*dto.TaxReport, error)
}

type taxService struct {
	cfg        *config.Config
	log        *logger.Logger
	validator  *validate.Validator
	marketData MarketDataService
}

func NewTaxService(cfg *config.Config, log *logger.Logger, validator *validate.Validator, marketData MarketDataService) TaxService {
	return &taxService{
		cfg:        cfg,
		log:        log,
		validator:  validator,
		marketData: marketData,
	}
}

type lotQuote struct {
	price  float64
	sector string
}

func (s *taxService) Analyze(ctx context.Context, req dto.TaxRequest) (*dto.TaxReport, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}

	lots := make([]dto.TaxLot, len(req.Lots))
	var tickers []string
	for i, lot := range req.Lots {
		ticker, err := utils.NormalizeTicker(lot.Ticker)
		if err != nil {
			return nil, err
		}
		if _, err := utils.ParseDate(lot.PurchaseDate); err != nil {
			return nil, err
		}
		lot.Ticker = ticker
		lots[i] = lot
		if !utils.ContainsString(tickers, ticker) {
			tickers = append(tickers, ticker)
		}
	}

	quotes := make(map[string]lotQuote, len(tickers))
	for ticker, price := range req.Prices {
		if price > 0 {
			quotes[strings.ToUpper(strings.TrimSpace(ticker))] = lotQuote{price: price}
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(taxPriceWorkers)
	for _, ticker := range tickers {
		if _, ok := quotes[ticker]; ok {
			continue
		}
		g.Go(func() error {
			record, err := s.marketData.GetRecord(gctx, ticker)
			if err != nil || record.Price == nil {
				s.log.WarnContext(gctx, "No current price for tax lot", logger.StringField("ticker", ticker), logger.ErrorField(err))
				return nil
			}
			mu.Lock()
			quotes[ticker] = lotQuote{price: *record.Price, sector: record.Sector}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := buildTaxReport(lots, quotes, s.cfg.Tax, utils.Today())
	s.log.InfoContext(ctx, "Tax analysis completed",
		logger.IntField("lots", len(lots)),
		logger.IntField("opportunities", len(report.Opportunities)),
		logger.Float64Field("potential_savings", report.Summary.PotentialSavings),
	)
	return report, nil
}

func buildTaxReport(lots []dto.TaxLot, quotes map[string]lotQuote, rates config.Tax, today time.Time) *dto.TaxReport {
	shortRate := decimal.NewFromFloat(rates.ShortTermRate)
	longRate := decimal.NewFromFloat(rates.LongTermRate)

	recentBuys := map[string]bool{}
	for _, lot := range lots {
		bought, _ := utils.ParseDate(lot.PurchaseDate)
		if utils.DaysBetween(bought, today) < washSaleWindowDays {
			recentBuys[lot.Ticker] = true
		}
	}

	report := &dto.TaxReport{GeneratedAt: utils.FormatDate(today)}
	var (
		costBasis, marketValue decimal.Decimal
		stGains, stLosses      decimal.Decimal
		ltGains, ltLosses      decimal.Decimal
		savings, harvestable   decimal.Decimal
	)

	for _, lot := range lots {
		quote, ok := quotes[lot.Ticker]
		if !ok {
			if !utils.ContainsString(report.MissingPrices, lot.Ticker) {
				report.MissingPrices = append(report.MissingPrices, lot.Ticker)
			}
			continue
		}

		bought, _ := utils.ParseDate(lot.PurchaseDate)
		days := utils.DaysBetween(bought, today)
		shares := decimal.NewFromFloat(lot.Shares)
		cost := shares.Mul(decimal.NewFromFloat(lot.PurchasePrice))
		value := shares.Mul(decimal.NewFromFloat(quote.price))
		gain := value.Sub(cost)
		longTerm := days >= longTermDays

		costBasis = costBasis.Add(cost)
		marketValue = marketValue.Add(value)
		switch {
		case gain.IsPositive() && longTerm:
			ltGains = ltGains.Add(gain)
		case gain.IsPositive():
			stGains = stGains.Add(gain)
		case gain.IsNegative() && longTerm:
			ltLosses = ltLosses.Add(gain.Neg())
		case gain.IsNegative():
			stLosses = stLosses.Add(gain.Neg())
		}

		if !gain.IsNegative() {
			continue
		}

		term, rate := TermShort, shortRate
		if longTerm {
			term, rate = TermLong, longRate
		}
		loss := gain.Neg()
		saving := loss.Mul(rate)
		savings = savings.Add(saving)

		sector := lot.Sector
		if sector == "" {
			sector = quote.sector
		}
		replacements := replacementETFs[sector]
		if replacements == nil {
			replacements = broadMarketETFs
		}

		opp := dto.HarvestOpportunity{
			Ticker:         lot.Ticker,
			Shares:         lot.Shares,
			PurchaseDate:   bought,
			CostBasis:      cost.Round(2).InexactFloat64(),
			MarketValue:    value.Round(2).InexactFloat64(),
			UnrealizedLoss: loss.Round(2).InexactFloat64(),
			HoldingDays:    days,
			Term:           term,
			TaxSavings:     saving.Round(2).InexactFloat64(),
			Replacements:   replacements,
		}
		if recentBuys[lot.Ticker] {
			opp.WashSaleWarning = fmt.Sprintf("%s was bought within the last %d days; selling at a loss now may be a wash sale", lot.Ticker, washSaleWindowDays)
			opp.Action = fmt.Sprintf("WAIT - wash sale risk, sell after %d days", washSaleWindowDays)
		} else {
			harvestable = harvestable.Add(loss)
			opp.Action = fmt.Sprintf("HARVEST - sell and consider %s", replacements[0])
		}
		report.Opportunities = append(report.Opportunities, opp)
	}

	sort.SliceStable(report.Opportunities, func(i, j int) bool {
		return report.Opportunities[i].TaxSavings > report.Opportunities[j].TaxSavings
	})

	netShort := stGains.Sub(stLosses)
	netLong := ltGains.Sub(ltLosses)
	estimated := decimal.Max(decimal.Zero, netShort).Mul(shortRate).Add(decimal.Max(decimal.Zero, netLong).Mul(longRate))

	report.Summary = dto.TaxSummary{
		TotalCostBasis:   costBasis.Round(2).InexactFloat64(),
		TotalMarketValue: marketValue.Round(2).InexactFloat64(),
		UnrealizedGains:  stGains.Add(ltGains).Round(2).InexactFloat64(),
		UnrealizedLosses: stLosses.Add(ltLosses).Round(2).InexactFloat64(),
		ShortTermGains:   stGains.Round(2).InexactFloat64(),
		ShortTermLosses:  stLosses.Round(2).InexactFloat64(),
		LongTermGains:    ltGains.Round(2).InexactFloat64(),
		LongTermLosses:   ltLosses.Round(2).InexactFloat64(),
		EstimatedTax:     estimated.Round(2).InexactFloat64(),
		PotentialSavings: savings.Round(2).InexactFloat64(),
	}
	report.Recommendations = taxRecommendations(harvestable, netShort, today)
	return report
}

func taxRecommendations(harvestable, netShort decimal.Decimal, today time.Time) []string {
	var recs []string
	if harvestable.IsPositive() {
		recs = append(recs, fmt.Sprintf("Harvest $%s in losses to offset gains and save taxes", harvestable.Round(0).StringFixed(0)))
	}
	if netShort.GreaterThan(decimal.NewFromInt(highShortTermGains)) {
		recs = append(recs, fmt.Sprintf("High short-term gains ($%s). Consider holding over one year for the lower rate.", netShort.Round(0).StringFixed(0)))
	}
	if today.Month() == time.December {
		recs = append(recs, fmt.Sprintf("Only %d days left in the tax year. Consider harvesting losses before Dec 31.", 31-today.Day()))
	}
	recs = append(recs, "Use specific lot identification for optimal tax treatment when selling.")
	return recs
}
