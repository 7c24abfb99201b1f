package dto

type MarketInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	LotSize  int    `json:"lot_size"`
	Suffix   string `json:"suffix"`
	IsOpen   bool   `json:"is_open"`
}

type ConvertRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	From   string  `json:"from" validate:"required,len=3"`
	To     string  `json:"to" validate:"required,len=3"`
}

type ConvertResult struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
}

type GlobalAnalysis struct {
	Symbol      string         `json:"symbol"`
	Market      MarketInfo     `json:"market"`
	Analysis    AnalysisResult `json:"analysis"`
	LocalPrice  *float64       `json:"local_price,omitempty"`
	PriceUSD    *float64       `json:"price_usd,omitempty"`
	LotValueUSD *float64       `json:"lot_value_usd,omitempty"`
}

type MarketSummary struct {
	Market      MarketInfo `json:"market"`
	IndexSymbol string     `json:"index_symbol,omitempty"`
	IndexLevel  *float64   `json:"index_level,omitempty"`
	DailyChange *float64   `json:"daily_change,omitempty"`
}
