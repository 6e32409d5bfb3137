package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo
// Finance chart API. It maps directly to the API format, containing
// nested structures for metadata, timestamps, price indicators and
// optional split events.
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level payload of a chart API response.
type Chart struct {
	Result []Result `json:"result"`
	Error  *string  `json:"error"`
}

// Result is one instrument's data within a chart response. Yahoo
// returns one element per queried symbol.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Indicators IndicatorsContainer `json:"indicators"`
	Events     *Events             `json:"events"`
}

// Meta carries symbol metadata for one result.
type Meta struct {
	Currency         string `json:"currency"`
	Symbol           string `json:"symbol"`
	ExchangeName     string `json:"exchangeName"`
	FullExchangeName string `json:"fullExchangeName"`
	InstrumentType   string `json:"instrumentType"`
	Timezone         string `json:"timezone"`
}

// IndicatorsContainer wraps the quote arrays of a result.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds parallel OHLCV arrays aligned with Result.Timestamp.
// Entries are pointers because Yahoo emits null for slots without a
// trade (common in intraday data).
type Quote struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Volume []*int64   `json:"volume"`
}

// Events carries corporate action events when the query asked for them.
type Events struct {
	Splits map[string]SplitEvent `json:"splits"`
}

// SplitEvent is one split as reported by Yahoo. A 2:1 split has
// Numerator 2 and Denominator 1.
type SplitEvent struct {
	Date        int64   `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	SplitRatio  string  `json:"splitRatio"`
}

// Candle is one parsed price sample. For daily queries the timestamp is
// the session open in the exchange timezone; for intraday queries it is
// the interval start.
type Candle struct {
	Timestamp time.Time
	Close     float64
}

// PriceChart is the parsed, application-facing form of one result.
// Slots where Yahoo reported a null close are dropped during parsing.
type PriceChart struct {
	Symbol   string
	Currency string
	Timezone string
	Candles  []Candle
}

// Split is one parsed split event with its effective factor. A 2:1
// split carries Factor 2.
type Split struct {
	Date   time.Time
	Factor float64
}
