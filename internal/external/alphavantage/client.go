package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/httputil"
	"github.com/wonny/intrinsic/pkg/logger"
)

const userAgent = "intrinsic/1.0"

// Client handles communication with the Alpha Vantage API
// ⭐ SSOT: Alpha Vantage 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a paced Alpha Vantage client. All calls share one
// pacing clock so the free-tier quota holds across endpoints; the first
// call never waits.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	hc := httputil.New(log).
		WithTimeout(cfg.AlphaVantage.Timeout).
		WithRetry(cfg.AlphaVantage.MaxRetries, cfg.AlphaVantage.Pause).
		WithRateLimiter(rate.NewLimiter(rate.Every(cfg.AlphaVantage.Pause), 1)).
		WithUserAgent(userAgent)

	return &Client{
		httpClient: hc,
		logger:     log,
		apiKey:     cfg.AlphaVantage.APIKey,
		baseURL:    cfg.AlphaVantage.BaseURL,
	}
}

// endpoint builds the query URL for one API function.
func (c *Client) endpoint(params url.Values) string {
	p := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			p.Add(k, v)
		}
	}
	p.Set("apikey", c.apiKey)
	return c.baseURL + "?" + p.Encode()
}

// getJSON fetches one API function and screens the JSON object envelope.
// The vendor answers HTTP 200 even when throttled or erroring, so the body
// keys decide the outcome:
//   - "Note" or "Information"  -> throttled
//   - "Error Message"          -> empty with the vendor's reason
//   - empty object or non-JSON -> empty
func (c *Client) getJSON(ctx context.Context, params url.Values) (map[string]interface{}, outcome.Result) {
	fn := params.Get("function")
	resp, err := c.httpClient.Get(ctx, c.endpoint(params))
	if err != nil {
		return nil, outcome.FatalWith(fmt.Errorf("%s: %w", fn, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, outcome.FatalWith(fmt.Errorf("%s: read body: %w", fn, err))
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"function": fn,
			"status":   resp.StatusCode,
		}).Warn("non-JSON payload from vendor")
		return nil, outcome.EmptyWith("invalid JSON payload")
	}

	if note, ok := data["Note"].(string); ok {
		return nil, outcome.ThrottledWith(note)
	}
	if info, ok := data["Information"].(string); ok {
		return nil, outcome.ThrottledWith(info)
	}
	if msg, ok := data["Error Message"].(string); ok {
		return nil, outcome.EmptyWith(msg)
	}
	if len(data) == 0 {
		return nil, outcome.EmptyWith("empty payload")
	}
	return data, outcome.Successful()
}

// getText fetches one API function and returns the raw body. Used by the
// CSV endpoints, which answer plain text on success.
func (c *Client) getText(ctx context.Context, params url.Values) (string, outcome.Result) {
	fn := params.Get("function")
	resp, err := c.httpClient.Get(ctx, c.endpoint(params))
	if err != nil {
		return "", outcome.FatalWith(fmt.Errorf("%s: %w", fn, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", outcome.FatalWith(fmt.Errorf("%s: read body: %w", fn, err))
	}
	return strings.TrimSpace(string(body)), outcome.Successful()
}

// numeric coerces a decoded JSON value to a nullable float. The vendor
// writes missing numbers as "None", "" or "NaN".
func numeric(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		f := t
		return &f
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(t, "%"))
		switch strings.ToLower(s) {
		case "", "none", "nan":
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// field reads one string field from a decoded JSON object.
func field(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
