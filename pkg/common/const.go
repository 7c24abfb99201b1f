package common

const (
	KEY_RECORD_CACHE = "record:%s:%s"
	KEY_HISTORY      = "history:%s:%s:%s"
)

const (
	DATE_LAYOUT = "2006-01-02"
)

const (
	SOURCE_YAHOO         = "Yahoo Finance"
	SOURCE_ALPHA_VANTAGE = "Alpha Vantage"
)

const (
	BENCHMARK_TICKER = "SPY"
	VIX_TICKER       = "^VIX"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
