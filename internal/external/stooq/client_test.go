package stooq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{
		Env:      "test",
		LogLevel: "error",
		Stooq:    config.StooqConfig{BaseURL: baseURL},
	}
	return NewClient(cfg, logger.New(cfg))
}

func TestStooqSymbol(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"LMT", "lmt.us"},
		{"BRK.B", "brk-b.us"},
		{" xom ", "xom.us"},
	}
	for _, tt := range tests {
		if got := stooqSymbol(tt.in); got != tt.want {
			t.Errorf("stooqSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastPrice(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\n" +
			"LMT.US,2024-05-10,22:02:11,452.00,455.10,450.25,454.29,1034522\n"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	q, err := c.LastPrice(context.Background(), "LMT")
	if err != nil {
		t.Fatalf("LastPrice: %v", err)
	}
	if q.Price != 454.29 || q.Symbol != "LMT" {
		t.Errorf("quote = %+v", q)
	}
	if q.AsOf.Format("2006-01-02 15:04:05") != "2024-05-10 22:02:11" {
		t.Errorf("AsOf = %v", q.AsOf)
	}
	if gotQuery == "" || gotQuery[:8] != "s=lmt.us" {
		t.Errorf("query = %q, want stooq symbol form", gotQuery)
	}
}

func TestLastPriceNoData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"nd cells", "Symbol,Date,Time,Open,High,Low,Close,Volume\nFAKE.US,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n"},
		{"header only", "Symbol,Date,Time,Open,High,Low,Close,Volume\n"},
		{"empty body", ""},
		{"html error page", "<html>blocked</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			if _, err := c.LastPrice(context.Background(), "FAKE"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
