package dto

import "time"

const (
	Interval1Day   = "1d"
	Interval1Week  = "1wk"
	Interval1Month = "1mo"
)

// GetPriceHistoryParam selects a daily (or weekly) close series for one symbol.
type GetPriceHistoryParam struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Interval string
}

type PriceBar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// DividendEvent is one cash dividend per share, on its ex-date.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

type PriceHistory struct {
	Symbol      string          `json:"symbol"`
	Currency    string          `json:"currency"`
	Exchange    string          `json:"exchange"`
	MarketPrice *float64        `json:"market_price"`
	Bars        []PriceBar      `json:"bars"`
	Dividends   []DividendEvent `json:"dividends,omitempty"`
}

func (h *PriceHistory) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}
	return out
}

func (h *PriceHistory) Volumes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Volume
	}
	return out
}

// CloseOn returns the last close at or before t.
func (h *PriceHistory) CloseOn(t time.Time) (float64, bool) {
	var (
		price float64
		found bool
	)
	for _, b := range h.Bars {
		if b.Date.After(t) {
			break
		}
		price, found = b.Close, true
	}
	return price, found
}

// YahooChartResponse is the v8 chart payload. Quote arrays contain nulls for halted sessions.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				ExchangeName       string   `json:"exchangeName"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    *struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooError `json:"error"`
	} `json:"chart"`
}

type YahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooValue is the {raw, fmt} pair Yahoo uses for every numeric field.
type YahooValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type YahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []YahooQuoteSummary `json:"result"`
		Error  *YahooError         `json:"error"`
	} `json:"quoteSummary"`
}

type YahooQuoteSummary struct {
	Price *struct {
		RegularMarketPrice YahooValue `json:"regularMarketPrice"`
		MarketCap          YahooValue `json:"marketCap"`
		Currency           string     `json:"currency"`
		ExchangeName       string     `json:"exchangeName"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE                   YahooValue `json:"trailingPE"`
		ForwardPE                    YahooValue `json:"forwardPE"`
		Beta                         YahooValue `json:"beta"`
		DividendYield                YahooValue `json:"dividendYield"`
		DividendRate                 YahooValue `json:"dividendRate"`
		PayoutRatio                  YahooValue `json:"payoutRatio"`
		FiveYearAvgDividendYield     YahooValue `json:"fiveYearAvgDividendYield"`
		PriceToSalesTrailing12Months YahooValue `json:"priceToSalesTrailing12Months"`
		MarketCap                    YahooValue `json:"marketCap"`
	} `json:"summaryDetail"`
	FinancialData *struct {
		CurrentPrice            YahooValue `json:"currentPrice"`
		TargetMeanPrice         YahooValue `json:"targetMeanPrice"`
		RecommendationKey       string     `json:"recommendationKey"`
		NumberOfAnalystOpinions YahooValue `json:"numberOfAnalystOpinions"`
		ReturnOnEquity          YahooValue `json:"returnOnEquity"`
		ReturnOnAssets          YahooValue `json:"returnOnAssets"`
		DebtToEquity            YahooValue `json:"debtToEquity"`
		CurrentRatio            YahooValue `json:"currentRatio"`
		QuickRatio              YahooValue `json:"quickRatio"`
		OperatingMargins        YahooValue `json:"operatingMargins"`
		GrossMargins            YahooValue `json:"grossMargins"`
		ProfitMargins           YahooValue `json:"profitMargins"`
		RevenueGrowth           YahooValue `json:"revenueGrowth"`
		EarningsGrowth          YahooValue `json:"earningsGrowth"`
		FreeCashflow            YahooValue `json:"freeCashflow"`
	} `json:"financialData"`
	DefaultKeyStatistics *struct {
		PriceToBook YahooValue `json:"priceToBook"`
		PegRatio    YahooValue `json:"pegRatio"`
		ForwardPE   YahooValue `json:"forwardPE"`
		Beta        YahooValue `json:"beta"`
	} `json:"defaultKeyStatistics"`
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	EarningsHistory *struct {
		History []YahooEarningsRow `json:"history"`
	} `json:"earningsHistory"`
}

type YahooEarningsRow struct {
	EpsActual       YahooValue `json:"epsActual"`
	EpsEstimate     YahooValue `json:"epsEstimate"`
	SurprisePercent YahooValue `json:"surprisePercent"`
	Quarter         YahooValue `json:"quarter"`
}
