// Copyright (c) 2025 BVK Chaitanya

package yahoo

import (
	"github.com/shopspring/decimal"
)

type ChartResponse struct {
	Chart ChartType `json:"chart"`
}

type ChartType struct {
	Result []*ResultType `json:"result"`
	Error  *ErrorType    `json:"error"`
}

type ErrorType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ResultType struct {
	Meta       MetaType       `json:"meta"`
	Timestamps []int64        `json:"timestamp"`
	Indicators IndicatorsType `json:"indicators"`
}

type MetaType struct {
	Currency           string          `json:"currency"`
	Symbol             string          `json:"symbol"`
	ExchangeName       string          `json:"exchangeName"`
	InstrumentType     string          `json:"instrumentType"`
	RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
	RegularMarketTime  int64           `json:"regularMarketTime"`
	GMTOffset          int64           `json:"gmtoffset"`
	Timezone           string          `json:"timezone"`
}

type IndicatorsType struct {
	Quote []*QuoteType `json:"quote"`
}

// QuoteType holds per-candle arrays parallel to the result timestamps.
// Entries can be null when the market has no trade for a candle.
type QuoteType struct {
	Open   []*decimal.Decimal `json:"open"`
	High   []*decimal.Decimal `json:"high"`
	Low    []*decimal.Decimal `json:"low"`
	Close  []*decimal.Decimal `json:"close"`
	Volume []*decimal.Decimal `json:"volume"`
}
