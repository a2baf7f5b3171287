package prices

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/external/stooq"
	"github.com/wonny/intrinsic/internal/external/yahoo"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

// Quote is one resolved price with its provenance.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Source string    `json:"source"`
	AsOf   time.Time `json:"as_of"`
}

// Source resolves the latest price for one symbol.
type Source interface {
	Name() string
	Quote(ctx context.Context, symbol string) (Quote, outcome.Result)
}

// Service tries price sources in configured order; the first hit wins.
// Only a vendor throttle halts the chain, everything else falls through.
// ⭐ SSOT: 가격 조회 순서는 이 서비스에서만 결정
type Service struct {
	sources []Source
	logger  *logger.Logger
}

// NewChain builds a service over explicit sources, in order.
func NewChain(log *logger.Logger, sources ...Source) *Service {
	return &Service{sources: sources, logger: log}
}

// NewService wires the configured source order (comma separated names:
// yahoo, stooq, vendor). Unknown names are skipped with a warning.
func NewService(cfg *config.Config, yc *yahoo.Client, sc *stooq.Client, av *alphavantage.Client, log *logger.Logger) *Service {
	var sources []Source
	for _, name := range strings.Split(cfg.PriceSources, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "yahoo":
			sources = append(sources, yahooSource{client: yc})
		case "stooq":
			sources = append(sources, stooqSource{client: sc})
		case "vendor", "alphavantage":
			sources = append(sources, vendorSource{client: av})
		case "":
		default:
			log.WithField("source", name).Warn("unknown price source, skipping")
		}
	}
	return NewChain(log, sources...)
}

// Names lists the active source order.
func (s *Service) Names() []string {
	out := make([]string, len(s.sources))
	for i, src := range s.sources {
		out[i] = src.Name()
	}
	return out
}

// Resolve walks the chain for one symbol. A nil quote with an empty
// outcome means every source missed; price-dependent metrics stay null
// and the run carries on.
func (s *Service) Resolve(ctx context.Context, symbol string) (*Quote, outcome.Result) {
	for _, src := range s.sources {
		q, res := src.Quote(ctx, symbol)
		if res.OK() {
			s.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"source": q.Source,
				"price":  q.Price,
			}).Debug("price resolved")
			return &q, res
		}
		if res.IsThrottled() {
			return nil, res
		}
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"source": src.Name(),
			"miss":   res.String(),
		}).Debug("price source missed")
	}
	return nil, outcome.EmptyWith("no price source succeeded")
}

type yahooSource struct {
	client *yahoo.Client
}

func (s yahooSource) Name() string { return "yahoo" }

func (s yahooSource) Quote(ctx context.Context, symbol string) (Quote, outcome.Result) {
	q, err := s.client.LastPrice(ctx, symbol)
	if err != nil {
		return Quote{}, outcome.EmptyWith(err.Error())
	}
	return Quote{
		Symbol: q.Symbol,
		Price:  q.Price,
		Source: "yahoo:" + q.Via,
		AsOf:   q.AsOf,
	}, outcome.Successful()
}

type stooqSource struct {
	client *stooq.Client
}

func (s stooqSource) Name() string { return "stooq" }

func (s stooqSource) Quote(ctx context.Context, symbol string) (Quote, outcome.Result) {
	q, err := s.client.LastPrice(ctx, symbol)
	if err != nil {
		return Quote{}, outcome.EmptyWith(err.Error())
	}
	return Quote{
		Symbol: q.Symbol,
		Price:  q.Price,
		Source: "stooq",
		AsOf:   q.AsOf,
	}, outcome.Successful()
}

type vendorSource struct {
	client *alphavantage.Client
}

func (s vendorSource) Name() string { return "vendor" }

// Quote pulls GLOBAL_QUOTE through the paced fetcher. This leg counts
// against the vendor quota, which is why it sits last by default.
func (s vendorSource) Quote(ctx context.Context, symbol string) (Quote, outcome.Result) {
	q, res := s.client.GlobalQuote(ctx, symbol)
	if !res.OK() {
		return Quote{}, res
	}
	if q.Price == nil || *q.Price <= 0 {
		return Quote{}, outcome.EmptyWith("quote carries no price")
	}

	asOf := time.Now().UTC()
	if q.LatestTradingDay != "" {
		if ts, err := time.Parse("2006-01-02", q.LatestTradingDay); err == nil {
			asOf = ts.UTC()
		}
	}
	sym := q.Symbol
	if sym == "" {
		sym = strings.ToUpper(symbol)
	}
	return Quote{Symbol: sym, Price: *q.Price, Source: "vendor", AsOf: asOf}, outcome.Successful()
}
