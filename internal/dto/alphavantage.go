package dto

// AlphaVantageOverview is the OVERVIEW payload. Every value is a string and may be "None" or "-".
type AlphaVantageOverview struct {
	Symbol            string `json:"Symbol"`
	Description       string `json:"Description"`
	Sector            string `json:"Sector"`
	Industry          string `json:"Industry"`
	Currency          string `json:"Currency"`
	MarketCap         string `json:"MarketCapitalization"`
	PERatio           string `json:"PERatio"`
	PEGRatio          string `json:"PEGRatio"`
	ForwardPE         string `json:"ForwardPE"`
	PriceToBookRatio  string `json:"PriceToBookRatio"`
	PriceToSales      string `json:"PriceToSalesRatioTTM"`
	ReturnOnEquityTTM string `json:"ReturnOnEquityTTM"`
	ReturnOnAssetsTTM string `json:"ReturnOnAssetsTTM"`
	OperatingMargin   string `json:"OperatingMarginTTM"`
	ProfitMargin      string `json:"ProfitMargin"`
	Beta              string `json:"Beta"`
	DividendYield     string `json:"DividendYield"`
	AnalystTarget     string `json:"AnalystTargetPrice"`
	Note              string `json:"Note"`
	Information       string `json:"Information"`
}

type AlphaVantageGlobalQuote struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
		Volume string `json:"06. volume"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// AlphaVantageFundamentals is the parsed subset of OVERVIEW and GLOBAL_QUOTE that overrides Yahoo values.
type AlphaVantageFundamentals struct {
	Price        *float64
	MarketCap    *float64
	PERatio      *float64
	ForwardPE    *float64
	PBRatio      *float64
	PEGRatio     *float64
	PriceToSales *float64
	ROE          *float64
	ROA          *float64
	OpMargin     *float64
	ProfitMargin *float64
	Beta         *float64
	TargetPrice  *float64
	Sector       string
	Industry     string
	Description  string
}
