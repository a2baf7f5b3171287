package alphavantage

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/intrinsic/internal/outcome"
)

// Quote is the normalized GLOBAL_QUOTE record.
type Quote struct {
	Symbol           string
	Price            *float64
	PreviousClose    *float64
	Change           *float64
	ChangePercent    *float64
	Volume           *float64
	LatestTradingDay string
}

// Bar is one day of the adjusted daily series.
type Bar struct {
	Date       time.Time
	Open       *float64
	High       *float64
	Low        *float64
	Close      *float64
	AdjClose   *float64
	Volume     *float64
	Dividend   *float64
	SplitCoeff *float64
}

// GlobalQuote fetches the latest quote for one symbol.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (Quote, outcome.Result) {
	data, res := c.getJSON(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if !res.OK() {
		return Quote{}, res
	}

	raw, ok := data["Global Quote"].(map[string]interface{})
	if !ok {
		c.logger.WithField("symbol", symbol).Debug("unexpected GLOBAL_QUOTE shape")
		return Quote{}, outcome.EmptyWith("unexpected quote shape")
	}
	if len(raw) == 0 {
		return Quote{}, outcome.EmptyWith("empty quote")
	}

	q := Quote{
		Symbol:           field(raw, "01. symbol"),
		Price:            numeric(raw["05. price"]),
		PreviousClose:    numeric(raw["08. previous close"]),
		Change:           numeric(raw["09. change"]),
		ChangePercent:    numeric(raw["10. change percent"]),
		Volume:           numeric(raw["06. volume"]),
		LatestTradingDay: field(raw, "07. latest trading day"),
	}
	return q, outcome.Successful()
}

// DailyAdjusted fetches TIME_SERIES_DAILY_ADJUSTED and returns bars sorted
// by date ascending. outputsize is "compact" (~100 sessions) or "full".
func (c *Client) DailyAdjusted(ctx context.Context, symbol, outputsize string) ([]Bar, outcome.Result) {
	if outputsize == "" {
		outputsize = "compact"
	}
	data, res := c.getJSON(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY_ADJUSTED"},
		"symbol":     {symbol},
		"outputsize": {outputsize},
	})
	if !res.OK() {
		return nil, res
	}

	series, ok := data["Time Series (Daily)"].(map[string]interface{})
	if !ok || len(series) == 0 {
		return nil, outcome.EmptyWith("no daily series")
	}

	bars := make([]Bar, 0, len(series))
	for day, v := range series {
		rec, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{
			Date:       date,
			Open:       numeric(rec["1. open"]),
			High:       numeric(rec["2. high"]),
			Low:        numeric(rec["3. low"]),
			Close:      numeric(rec["4. close"]),
			AdjClose:   numeric(rec["5. adjusted close"]),
			Volume:     numeric(rec["6. volume"]),
			Dividend:   numeric(rec["7. dividend amount"]),
			SplitCoeff: numeric(rec["8. split coefficient"]),
		})
	}
	if len(bars) == 0 {
		return nil, outcome.EmptyWith("no parseable daily bars")
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, outcome.Successful()
}
