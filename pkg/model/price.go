package model

import "math"

// DateLayout is the calendar-date format used for PriceRecord.Date and
// for the (symbol, date) storage key.
const DateLayout = "2006-01-02"

// PriceRecord is the canonical daily OHLCV record. Once a provider
// response has been normalized into this shape, nothing downstream can
// tell which provider produced it.
type PriceRecord struct {
	Symbol string  `db:"symbol" json:"symbol"`
	Date   string  `db:"date" json:"date"`
	Open   float64 `db:"open_price" json:"open"`
	High   float64 `db:"high_price" json:"high"`
	Low    float64 `db:"low_price" json:"low"`
	Close  float64 `db:"close_price" json:"close"`
	Volume int64   `db:"volume" json:"volume"`
}

// FetchResult maps a symbol to the records one pipeline run collected
// for it. Symbols that yielded nothing are absent from the map.
type FetchResult map[string][]PriceRecord

// Valid reports whether the record is storable: all prices finite and
// non-negative, volume non-negative, symbol and date present.
func (r PriceRecord) Valid() bool {
	if r.Symbol == "" || r.Date == "" {
		return false
	}
	if r.Volume < 0 {
		return false
	}
	for _, p := range []float64{r.Open, r.High, r.Low, r.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return false
		}
	}
	return true
}

// Size returns the total number of records across all symbols.
func (fr FetchResult) Size() int {
	n := 0
	for _, records := range fr {
		n += len(records)
	}
	return n
}
