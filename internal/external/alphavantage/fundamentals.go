package alphavantage

import (
	"context"
	"net/url"

	"github.com/wonny/intrinsic/internal/outcome"
)

// CompanyOverview fetches the OVERVIEW payload. The vendor answers an
// object without identity fields for unknown symbols; that maps to empty.
func (c *Client) CompanyOverview(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result) {
	data, res := c.getJSON(ctx, url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {symbol},
	})
	if !res.OK() {
		return nil, res
	}
	if _, hasSym := data["Symbol"]; !hasSym {
		if _, hasName := data["Name"]; !hasName {
			return nil, outcome.EmptyWith("overview missing identity fields")
		}
	}
	return data, res
}

// IncomeStatement fetches the INCOME_STATEMENT payload.
func (c *Client) IncomeStatement(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result) {
	return c.getJSON(ctx, url.Values{
		"function": {"INCOME_STATEMENT"},
		"symbol":   {symbol},
	})
}

// BalanceSheet fetches the BALANCE_SHEET payload.
func (c *Client) BalanceSheet(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result) {
	return c.getJSON(ctx, url.Values{
		"function": {"BALANCE_SHEET"},
		"symbol":   {symbol},
	})
}

// CashFlow fetches the CASH_FLOW payload.
func (c *Client) CashFlow(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result) {
	return c.getJSON(ctx, url.Values{
		"function": {"CASH_FLOW"},
		"symbol":   {symbol},
	})
}

// Earnings fetches the EARNINGS payload (annual and quarterly EPS).
func (c *Client) Earnings(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result) {
	return c.getJSON(ctx, url.Values{
		"function": {"EARNINGS"},
		"symbol":   {symbol},
	})
}
