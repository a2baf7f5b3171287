package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/httputil"
	"github.com/wonny/intrinsic/pkg/logger"
)

// Yahoo rejects the default Go user agent.
const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// aliases maps listing symbols to the spellings Yahoo trades them under
// (share classes mostly).
var aliases = map[string][]string{
	"HEI": {"HEI", "HEI-A"},
}

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	chartBaseURL string
	quoteBaseURL string
}

// NewClient creates a Yahoo Finance client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	hc := httputil.New(log).
		WithTimeout(10 * time.Second).
		WithUserAgent(browserUA)

	return &Client{
		httpClient:   hc,
		logger:       log,
		chartBaseURL: cfg.Yahoo.ChartBaseURL,
		quoteBaseURL: cfg.Yahoo.QuoteBaseURL,
	}
}

// Quote is one resolved Yahoo quote.
type Quote struct {
	Symbol string
	Price  float64
	AsOf   time.Time
	Via    string // "chart" or "scrape"
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// candidates lists the symbol spellings worth trying, listing form first.
func candidates(symbol string) []string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	out := []string{sym}
	if strings.Contains(sym, ".") {
		out = append(out, strings.ReplaceAll(sym, ".", "-"))
	}
	for _, alt := range aliases[sym] {
		dup := false
		for _, have := range out {
			if have == alt {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, alt)
		}
	}
	return out
}

// LastPrice resolves the latest price for one symbol: the chart JSON API
// first, then the quote page scrape when the API is blocked. Every alias
// spelling is tried before giving up.
func (c *Client) LastPrice(ctx context.Context, symbol string) (Quote, error) {
	var lastErr error
	for _, cand := range candidates(symbol) {
		q, err := c.chartQuote(ctx, cand)
		if err == nil {
			return q, nil
		}
		lastErr = err
	}
	for _, cand := range candidates(symbol) {
		q, err := c.scrapeQuote(ctx, cand)
		if err == nil {
			return q, nil
		}
		lastErr = err
	}
	return Quote{}, fmt.Errorf("yahoo quote failed for %s: %w", symbol, lastErr)
}

// chartQuote pulls one month of daily bars and takes the newest close,
// preferring the meta market price when present.
func (c *Client) chartQuote(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1mo&interval=1d", c.chartBaseURL, url.PathEscape(symbol))
	resp, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return Quote{}, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read response body failed: %w", err)
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Quote{}, fmt.Errorf("decode chart response failed: %w", err)
	}
	if cr.Chart.Error != nil {
		return Quote{}, fmt.Errorf("chart API error: %s (%s)", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if len(cr.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("chart response has no result")
	}

	res := cr.Chart.Result[0]
	if res.Meta.RegularMarketPrice > 0 {
		asOf := time.Now().UTC()
		if res.Meta.RegularMarketTime > 0 {
			asOf = time.Unix(res.Meta.RegularMarketTime, 0).UTC()
		}
		return Quote{Symbol: symbol, Price: res.Meta.RegularMarketPrice, AsOf: asOf, Via: "chart"}, nil
	}

	// Walk the close series backwards past trailing nulls.
	if len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] == nil || *closes[i] <= 0 {
				continue
			}
			asOf := time.Now().UTC()
			if i < len(res.Timestamp) {
				asOf = time.Unix(res.Timestamp[i], 0).UTC()
			}
			return Quote{Symbol: symbol, Price: *closes[i], AsOf: asOf, Via: "chart"}, nil
		}
	}
	return Quote{}, fmt.Errorf("chart response has no usable close")
}

// scrapeQuote reads the price off the public quote page.
func (c *Client) scrapeQuote(ctx context.Context, symbol string) (Quote, error) {
	u := fmt.Sprintf("%s/quote/%s", c.quoteBaseURL, url.PathEscape(symbol))
	resp, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return Quote{}, fmt.Errorf("quote page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("parse quote page failed: %w", err)
	}

	sel := doc.Find(fmt.Sprintf(`fin-streamer[data-field="regularMarketPrice"][data-symbol=%q]`, symbol)).First()
	if sel.Length() == 0 {
		sel = doc.Find(`fin-streamer[data-field="regularMarketPrice"]`).First()
	}
	if sel.Length() == 0 {
		return Quote{}, fmt.Errorf("quote page has no price element")
	}

	raw, ok := sel.Attr("data-value")
	if !ok || raw == "" {
		raw = sel.Text()
	}
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return Quote{}, fmt.Errorf("quote page price unparseable: %q", raw)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	}).Debug("scraped quote page")
	return Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC(), Via: "scrape"}, nil
}
