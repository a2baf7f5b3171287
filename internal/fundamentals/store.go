package fundamentals

import (
	"context"
	"strings"

	"github.com/wonny/intrinsic/internal/diskcache"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/pkg/logger"
)

// StatementFetcher is the slice of the vendor client the store needs.
type StatementFetcher interface {
	CompanyOverview(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result)
	IncomeStatement(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result)
	BalanceSheet(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result)
	CashFlow(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result)
	Earnings(ctx context.Context, symbol string) (map[string]interface{}, outcome.Result)
}

// Store assembles normalized bundles, backed by the disk cache so repeat
// runs inside the TTL never touch the vendor. Profiles are mirrored into a
// second cache with its own shorter TTL for discovery-time sector lookups.
type Store struct {
	client    StatementFetcher
	cache     *diskcache.Store
	overviews *diskcache.Store
	logger    *logger.Logger
}

// NewStore returns a bundle store. Either cache may be nil to disable
// that layer.
func NewStore(client StatementFetcher, cache, overviews *diskcache.Store, log *logger.Logger) *Store {
	return &Store{client: client, cache: cache, overviews: overviews, logger: log}
}

// CacheKey returns the cache key for one symbol's fundamentals bundle.
func CacheKey(symbol string) string {
	return "fund_" + strings.ToUpper(symbol)
}

// OverviewCacheKey returns the cache key for one symbol's profile.
func OverviewCacheKey(symbol string) string {
	return "overview_" + strings.ToUpper(symbol)
}

// FetchBundle returns the normalized bundle for one symbol. The cached
// copy wins when fresh; otherwise all five statement endpoints are pulled,
// normalized and written back. A throttled or failed endpoint halts the
// fetch so the caller can stop the batch; endpoints with no data simply
// leave their series empty.
func (s *Store) FetchBundle(ctx context.Context, symbol string, useCache bool) (*Bundle, outcome.Result) {
	key := CacheKey(symbol)
	if useCache && s.cache != nil {
		var b Bundle
		if s.cache.Get(key, &b) {
			s.logger.WithField("symbol", symbol).Debug("fundamentals cache hit")
			return &b, outcome.Successful()
		}
	}

	ov, res := s.client.CompanyOverview(ctx, symbol)
	if res.Halts() {
		return nil, res
	}
	inc, res := s.client.IncomeStatement(ctx, symbol)
	if res.Halts() {
		return nil, res
	}
	bal, res := s.client.BalanceSheet(ctx, symbol)
	if res.Halts() {
		return nil, res
	}
	cas, res := s.client.CashFlow(ctx, symbol)
	if res.Halts() {
		return nil, res
	}
	ern, res := s.client.Earnings(ctx, symbol)
	if res.Halts() {
		return nil, res
	}

	b := &Bundle{
		Symbol:            strings.ToUpper(symbol),
		Overview:          NormalizeOverview(ov),
		Income:            NormalizeStatement(inc, KindIncome),
		Balance:           NormalizeStatement(bal, KindBalance),
		CashFlow:          NormalizeStatement(cas, KindCashFlow),
		Earnings:          NormalizeStatement(ern, KindEarnings),
		QuarterlyEarnings: NormalizeStatement(ern, KindQuarterlyEarnings),
	}
	if b.Empty() {
		return nil, outcome.EmptyWith("no fundamentals data")
	}

	if useCache && s.cache != nil {
		s.cache.Put(key, b)
	}
	if s.overviews != nil && (b.Overview.Symbol != "" || b.Overview.Name != "") {
		s.overviews.Put(OverviewCacheKey(symbol), b.Overview)
	}
	s.logger.WithFields(map[string]interface{}{
		"symbol":  b.Symbol,
		"income":  b.Income.Len(),
		"balance": b.Balance.Len(),
	}).Debug("fundamentals bundle assembled")
	return b, outcome.Successful()
}
