package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"ai-hedge-fund/internal/dto"
	"ai-hedge-fund/pkg/common"
	"ai-hedge-fund/pkg/logger"
	"ai-hedge-fund/pkg/utils"
	"ai-hedge-fund/pkg/validate"
)

const MarketUS = "US"

type market struct {
	info       dto.MarketInfo
	location   string
	index      string
	yahooAlias string
}

var markets = map[string]market{
	"US": {info: dto.MarketInfo{Code: "US", Name: "US Stocks", Country: "USA", Currency: "USD", Timezone: "EST", Open: "09:30", Close: "16:00", LotSize: 1}, location: "America/New_York", index: "^GSPC"},
	"SS": {info: dto.MarketInfo{Code: "SS", Name: "Shanghai Stock Exchange", Country: "China", Currency: "CNY", Timezone: "CST", Open: "09:30", Close: "15:00", LotSize: 100, Suffix: ".SS"}, location: "Asia/Shanghai", index: "000001.SS"},
	"SZ": {info: dto.MarketInfo{Code: "SZ", Name: "Shenzhen Stock Exchange", Country: "China", Currency: "CNY", Timezone: "CST", Open: "09:30", Close: "15:00", LotSize: 100, Suffix: ".SZ"}, location: "Asia/Shanghai", index: "399001.SZ"},
	"HK": {info: dto.MarketInfo{Code: "HK", Name: "Hong Kong Stock Exchange", Country: "Hong Kong", Currency: "HKD", Timezone: "HKT", Open: "09:30", Close: "16:00", LotSize: 100, Suffix: ".HK"}, location: "Asia/Hong_Kong", index: "^HSI"},
	"L":  {info: dto.MarketInfo{Code: "L", Name: "London Stock Exchange", Country: "UK", Currency: "GBP", Timezone: "GMT", Open: "08:00", Close: "16:30", LotSize: 1, Suffix: ".L"}, location: "Europe/London", index: "^FTSE"},
	"PA": {info: dto.MarketInfo{Code: "PA", Name: "Euronext Paris", Country: "France", Currency: "EUR", Timezone: "CET", Open: "09:00", Close: "17:30", LotSize: 1, Suffix: ".PA"}, location: "Europe/Paris", index: "^FCHI"},
	"DE": {info: dto.MarketInfo{Code: "DE", Name: "Deutsche Boerse", Country: "Germany", Currency: "EUR", Timezone: "CET", Open: "09:00", Close: "17:30", LotSize: 1, Suffix: ".DE"}, location: "Europe/Berlin", index: "^GDAXI"},
	"T":  {info: dto.MarketInfo{Code: "T", Name: "Tokyo Stock Exchange", Country: "Japan", Currency: "JPY", Timezone: "JST", Open: "09:00", Close: "15:00", LotSize: 100, Suffix: ".T"}, location: "Asia/Tokyo", index: "^N225"},
	"KS": {info: dto.MarketInfo{Code: "KS", Name: "Korea Exchange", Country: "South Korea", Currency: "KRW", Timezone: "KST", Open: "09:00", Close: "15:30", LotSize: 1, Suffix: ".KS"}, location: "Asia/Seoul", index: "^KS11"},
	"SI": {info: dto.MarketInfo{Code: "SI", Name: "Singapore Exchange", Country: "Singapore", Currency: "SGD", Timezone: "SGT", Open: "09:00", Close: "17:00", LotSize: 100, Suffix: ".SI"}, location: "Asia/Singapore"},
	"AU": {info: dto.MarketInfo{Code: "AU", Name: "Australian Securities Exchange", Country: "Australia", Currency: "AUD", Timezone: "AET", Open: "10:00", Close: "16:00", LotSize: 1, Suffix: ".AX"}, location: "Australia/Sydney", index: "^AXJO", yahooAlias: "AX"},
	"TO": {info: dto.MarketInfo{Code: "TO", Name: "Toronto Stock Exchange", Country: "Canada", Currency: "CAD", Timezone: "EST", Open: "09:30", Close: "16:00", LotSize: 1, Suffix: ".TO"}, location: "America/Toronto"},
	"NS": {info: dto.MarketInfo{Code: "NS", Name: "National Stock Exchange of India", Country: "India", Currency: "INR", Timezone: "IST", Open: "09:15", Close: "15:30", LotSize: 1, Suffix: ".NS"}, location: "Asia/Kolkata", index: "^NSEI"},
	"BO": {info: dto.MarketInfo{Code: "BO", Name: "Bombay Stock Exchange", Country: "India", Currency: "INR", Timezone: "IST", Open: "09:15", Close: "15:30", LotSize: 1, Suffix: ".BO"}, location: "Asia/Kolkata"},
}

// usdRates is the USD value of one unit of each currency.
var usdRates = map[string]float64{
	"USD": 1.0,
	"CNY": 0.14,
	"HKD": 0.13,
	"JPY": 0.0067,
	"EUR": 1.09,
	"GBP": 1.27,
	"KRW": 0.00075,
	"SGD": 0.74,
	"AUD": 0.65,
	"CAD": 0.74,
	"INR": 0.012,
}

var (
	usPattern      = regexp.MustCompile(`^[A-Z]{1,5}$`)
	hkCodePattern  = regexp.MustCompile(`^\d{1,5}$`)
	aShareCode     = regexp.MustCompile(`^\d{6}$`)
	suffixedSymbol = regexp.MustCompile(`^([A-Z0-9\-]+)\.([A-Z]{1,2})$`)
)

// DetectMarket returns the market code and the local (suffix free) code of symbol.
// Unrecognised shapes default to US.
func DetectMarket(symbol string) (string, string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case usPattern.MatchString(s):
		return MarketUS, s
	case aShareCode.MatchString(s):
		if strings.HasPrefix(s, "6") || strings.HasPrefix(s, "9") {
			return "SS", s
		}
		return "SZ", s
	case hkCodePattern.MatchString(s):
		return "HK", padHKCode(s)
	}

	if m := suffixedSymbol.FindStringSubmatch(s); m != nil {
		suffix := m[2]
		for code, mk := range markets {
			if suffix == code || (mk.yahooAlias != "" && suffix == mk.yahooAlias) {
				local := m[1]
				if code == "HK" {
					local = padHKCode(local)
				}
				return code, local
			}
		}
	}
	return MarketUS, s
}

// padHKCode left pads Hong Kong codes to four digits (700 -> 0700).
func padHKCode(code string) string {
	if len(code) >= 4 {
		return code
	}
	return strings.Repeat("0", 4-len(code)) + code
}

// YahooSymbol renders the symbol the quote provider expects, e.g. 600519 -> 600519.SS.
func YahooSymbol(symbol string) string {
	code, local := DetectMarket(symbol)
	return local + markets[code].info.Suffix
}

// ConvertCurrency converts amount between two supported currencies at static rates.
func ConvertCurrency(amount float64, from, to string) (float64, float64, error) {
	fromRate, ok := usdRates[strings.ToUpper(from)]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported currency %q: %w", from, common.ErrInvalidInput)
	}
	toRate, ok := usdRates[strings.ToUpper(to)]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported currency %q: %w", to, common.ErrInvalidInput)
	}
	rate := fromRate / toRate
	return amount * rate, rate, nil
}

// isOpen reports whether now falls inside the regular session on a weekday. Holidays are ignored.
func isOpen(m market, now time.Time) bool {
	loc, err := time.LoadLocation(m.location)
	if err != nil {
		return false
	}
	local := now.In(loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	clock := local.Format("15:04")
	return clock >= m.info.Open && clock < m.info.Close
}

type GlobalService interface {
	Markets() []dto.MarketInfo
	Convert(ctx context.Context, req dto.ConvertRequest) (*dto.ConvertResult, error)
	Analyze(ctx context.Context, symbol, mode string) (*dto.GlobalAnalysis, error)
	MarketSummary(ctx context.Context, code string) (*dto.MarketSummary, error)
}

type globalService struct {
	log        *logger.Logger
	validator  *validate.Validator
	analyzer   AnalyzerService
	marketData MarketDataService
	now        func() time.Time
}

func NewGlobalService(log *logger.Logger, validator *validate.Validator, analyzer AnalyzerService, marketData MarketDataService) GlobalService {
	return &globalService{
		log:        log,
		validator:  validator,
		analyzer:   analyzer,
		marketData: marketData,
		now:        time.Now,
	}
}

func (s *globalService) marketInfo(code string) dto.MarketInfo {
	m := markets[code]
	info := m.info
	info.IsOpen = isOpen(m, s.now())
	return info
}

func (s *globalService) Markets() []dto.MarketInfo {
	codes := make([]string, 0, len(markets))
	for code := range markets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]dto.MarketInfo, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.marketInfo(code))
	}
	return out
}

func (s *globalService) Convert(ctx context.Context, req dto.ConvertRequest) (*dto.ConvertResult, error) {
	if err := s.validator.Struct(ctx, &req); err != nil {
		return nil, err
	}
	converted, rate, err := ConvertCurrency(req.Amount, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return &dto.ConvertResult{
		Amount:    req.Amount,
		From:      strings.ToUpper(req.From),
		To:        strings.ToUpper(req.To),
		Rate:      rate,
		Converted: utils.RoundTo(converted, 4),
	}, nil
}

func (s *globalService) Analyze(ctx context.Context, symbol, mode string) (*dto.GlobalAnalysis, error) {
	code, _ := DetectMarket(symbol)
	yahoo, err := utils.NormalizeTicker(YahooSymbol(symbol))
	if err != nil {
		return nil, err
	}
	info := s.marketInfo(code)

	s.log.InfoContext(ctx, "Analysing global symbol",
		logger.StringField("symbol", yahoo),
		logger.StringField("market", code),
	)

	result, err := s.analyzer.AnalyzeTicker(ctx, yahoo, mode)
	if err != nil {
		return nil, err
	}

	out := &dto.GlobalAnalysis{Symbol: yahoo, Market: info, Analysis: result}
	if result.Record != nil && result.Record.Price != nil {
		price := *result.Record.Price
		currency := firstNonEmptyString(result.Record.Currency, info.Currency)
		out.LocalPrice = utils.ToPointer(price)
		if usd, _, err := ConvertCurrency(price, currency, "USD"); err == nil {
			out.PriceUSD = utils.ToPointer(utils.RoundTo(usd, 4))
			out.LotValueUSD = utils.ToPointer(utils.RoundTo(usd*float64(info.LotSize), 2))
		}
	}
	return out, nil
}

func (s *globalService) MarketSummary(ctx context.Context, code string) (*dto.MarketSummary, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	m, ok := markets[code]
	if !ok {
		return nil, fmt.Errorf("unknown market %q: %w", code, common.ErrInvalidInput)
	}
	summary := &dto.MarketSummary{Market: s.marketInfo(code), IndexSymbol: m.index}
	if m.index == "" {
		return summary, nil
	}

	to := utils.Today().AddDate(0, 0, 1)
	history, err := s.marketData.GetPriceHistory(ctx, m.index, to.AddDate(0, -1, 0), to)
	if err != nil {
		s.log.WarnContext(ctx, "Index history unavailable", logger.StringField("index", m.index), logger.ErrorField(err))
		return summary, nil
	}
	closes := history.Closes()
	summary.IndexLevel = utils.ToPointer(closes[len(closes)-1])
	summary.DailyChange = dailyChange(closes)
	return summary, nil
}

func dailyChange(closes []float64) *float64 {
	n := len(closes)
	if n < 2 || closes[n-2] <= 0 {
		return nil
	}
	v := utils.RoundTo(closes[n-1]/closes[n-2]-1, 4)
	return &v
}
