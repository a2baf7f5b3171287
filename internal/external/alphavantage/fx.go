package alphavantage

import (
	"context"
	"net/url"

	"github.com/wonny/intrinsic/internal/outcome"
)

// ExchangeRate fetches the CURRENCY_EXCHANGE_RATE spot rate from one
// currency code to another.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (float64, outcome.Result) {
	data, res := c.getJSON(ctx, url.Values{
		"function":      {"CURRENCY_EXCHANGE_RATE"},
		"from_currency": {from},
		"to_currency":   {to},
	})
	if !res.OK() {
		return 0, res
	}

	raw, ok := data["Realtime Currency Exchange Rate"].(map[string]interface{})
	if !ok {
		return 0, outcome.EmptyWith("unexpected exchange rate shape")
	}
	rate := numeric(raw["5. Exchange Rate"])
	if rate == nil {
		return 0, outcome.EmptyWith("missing exchange rate")
	}
	return *rate, outcome.Successful()
}
