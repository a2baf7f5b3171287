package alphavantage

import (
	"context"
	"encoding/csv"
	"net/url"
	"strings"

	"github.com/wonny/intrinsic/internal/outcome"
)

// Listing is one row of the LISTING_STATUS census.
type Listing struct {
	Symbol        string `validate:"required"`
	Name          string
	Exchange      string
	AssetType     string
	IPODate       string
	DelistingDate string
	Status        string
}

// ListingStatus fetches the LISTING_STATUS CSV. state is "active" or
// "delisted"; date optionally pins a historical census (YYYY-MM-DD).
// The vendor answers JSON even for CSV functions when throttled, so a
// JSON-shaped body maps to empty and callers fall back to seeds.
func (c *Client) ListingStatus(ctx context.Context, state, date string) ([]Listing, outcome.Result) {
	params := url.Values{"function": {"LISTING_STATUS"}}
	if state != "" {
		params.Set("state", state)
	}
	if date != "" {
		params.Set("date", date)
	}

	txt, res := c.getText(ctx, params)
	if !res.OK() {
		return nil, res
	}
	if txt == "" {
		return nil, outcome.EmptyWith("empty census body")
	}
	if strings.HasPrefix(txt, "{") || strings.HasPrefix(txt, "[") {
		return nil, outcome.EmptyWith("JSON response to CSV request")
	}

	r := csv.NewReader(strings.NewReader(txt))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil, outcome.EmptyWith("census unparseable")
	}

	header := rows[0]
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	// Throttled responses occasionally arrive as a one-column husk.
	if len(idx) < 2 {
		return nil, outcome.EmptyWith("census malformed")
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	listings := make([]Listing, 0, len(rows)-1)
	for _, row := range rows[1:] {
		l := Listing{
			Symbol:        strings.ToUpper(cell(row, "symbol")),
			Name:          cell(row, "name"),
			Exchange:      cell(row, "exchange"),
			AssetType:     cell(row, "assettype"),
			IPODate:       cell(row, "ipodate"),
			DelistingDate: cell(row, "delistingdate"),
			Status:        cell(row, "status"),
		}
		if l.Symbol == "" {
			continue
		}
		listings = append(listings, l)
	}
	if len(listings) == 0 {
		return nil, outcome.EmptyWith("census has no rows")
	}

	c.logger.WithField("rows", len(listings)).Debug("listing census fetched")
	return listings, outcome.Successful()
}
