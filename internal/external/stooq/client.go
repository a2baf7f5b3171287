package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/httputil"
	"github.com/wonny/intrinsic/pkg/logger"
)

// Client handles communication with the Stooq quote CSV endpoint
// ⭐ SSOT: Stooq 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a Stooq client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	hc := httputil.New(log).WithTimeout(10 * time.Second)
	return &Client{
		httpClient: hc,
		logger:     log,
		baseURL:    cfg.Stooq.BaseURL,
	}
}

// Quote is one resolved Stooq quote.
type Quote struct {
	Symbol string
	Price  float64
	AsOf   time.Time
}

// stooqSymbol maps a US listing symbol to Stooq's spelling: lower case,
// dots to dashes, ".us" suffix.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, ".", "-")
	return s + ".us"
}

// LastPrice fetches the latest close for one symbol. Stooq answers a
// two-line CSV; unknown symbols carry "N/D" cells.
func (c *Client) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", c.baseURL, stooqSymbol(symbol))
	resp, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return Quote{}, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read response body failed: %w", err)
	}

	r := csv.NewReader(strings.NewReader(strings.TrimSpace(string(body))))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 {
		return Quote{}, fmt.Errorf("quote CSV unparseable")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	row := rows[1]
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	raw := cell("close")
	if raw == "" || strings.EqualFold(raw, "N/D") {
		return Quote{}, fmt.Errorf("no close for %s", symbol)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return Quote{}, fmt.Errorf("close unparseable: %q", raw)
	}

	asOf := time.Now().UTC()
	if d := cell("date"); d != "" {
		if ts, err := time.Parse("2006-01-02 15:04:05", d+" "+cell("time")); err == nil {
			asOf = ts.UTC()
		} else if ts, err := time.Parse("2006-01-02", d); err == nil {
			asOf = ts.UTC()
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	}).Debug("stooq quote fetched")
	return Quote{Symbol: strings.ToUpper(symbol), Price: price, AsOf: asOf}, nil
}
