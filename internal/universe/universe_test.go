package universe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/intrinsic/internal/diskcache"
	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/pkg/config"
	"github.com/wonny/intrinsic/pkg/logger"
)

type stubLister struct {
	rows  []alphavantage.Listing
	res   outcome.Result
	calls int
}

func (s *stubLister) ListingStatus(_ context.Context, state, date string) ([]alphavantage.Listing, outcome.Result) {
	s.calls++
	return s.rows, s.res
}

func activeRow(symbol, name, exchange string) alphavantage.Listing {
	return alphavantage.Listing{
		Symbol:    symbol,
		Name:      name,
		Exchange:  exchange,
		AssetType: "Stock",
		Status:    "Active",
	}
}

func newTestBuilder(t *testing.T, lister Lister, profiles map[string]fundamentals.CompanyProfile) *Builder {
	t.Helper()
	log := logger.New(&config.Config{Env: "test", LogLevel: "error"})
	overviews := diskcache.NewStore(t.TempDir(), 7*24*time.Hour, log)
	for sym, profile := range profiles {
		overviews.Put(fundamentals.OverviewCacheKey(sym), profile)
	}
	return NewBuilder(lister, overviews, log)
}

func TestDiscoverSeedsOnlyWhenCensusEmpty(t *testing.T) {
	lister := &stubLister{res: outcome.EmptyWith("no listing data")}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Defence", "Energy"},
		NamesPerSector: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"LMT", "NOC", "GD", "RTX", "BA", "LHX"}, pools["Defence"])
	assert.Equal(t, []string{"XOM", "CVX", "SLB", "HAL", "COP", "EOG"}, pools["Energy"])
	assert.Equal(t, 1, lister.calls)
}

func TestDiscoverSeedOverrides(t *testing.T) {
	lister := &stubLister{res: outcome.EmptyWith("no listing data")}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Energy", "Metals", "Health"},
		NamesPerSector: 1,
		Seeds: map[string][]string{
			"Energy":  {"OXY", "PSX"},
			"METALS ": {"NUE"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"OXY", "PSX"}, pools["Energy"], "exact key overrides the builtin seeds")
	assert.Equal(t, []string{"NUE"}, pools["Metals"], "override keys fold case and punctuation")
	assert.Equal(t, []string{"JNJ", "PFE", "MRK", "UNH", "LLY", "ABBV"}, pools["Health"], "unnamed sectors keep the builtin seeds")
}

func TestDiscoverDefenceCensusAppended(t *testing.T) {
	lister := &stubLister{
		res: outcome.Successful(),
		rows: []alphavantage.Listing{
			activeRow("KTOS", "Kratos Defense & Security Solutions", "NASDAQ"),
			activeRow("AAPL", "Apple Inc", "NASDAQ"),
			activeRow("AVAV", "AeroVironment Inc Aerospace Systems", "NASDAQ"),
		},
	}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Defence"},
		Exchanges:      []string{"NYSE", "NASDAQ"},
		NamesPerSector: 3,
	})
	require.NoError(t, err)

	want := append(append([]string{}, LocalSeeds["Defence"]...), "KTOS", "AVAV")
	assert.Equal(t, want, pools["Defence"], "seeds first, then census matches in census order")
}

func TestDiscoverSectorMatchesFromCachedOverviews(t *testing.T) {
	lister := &stubLister{
		res: outcome.Successful(),
		rows: []alphavantage.Listing{
			activeRow("OXY", "Occidental Petroleum", "NYSE"),
			activeRow("AAPL", "Apple Inc", "NASDAQ"),
			activeRow("PSX", "Phillips 66", "NYSE"),
		},
	}
	b := newTestBuilder(t, lister, map[string]fundamentals.CompanyProfile{
		"OXY":  {Symbol: "OXY", Sector: "Energy", Industry: "Oil & Gas E&P"},
		"AAPL": {Symbol: "AAPL", Sector: "Technology", Industry: "Consumer Electronics"},
	})

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Energy"},
		NamesPerSector: 2,
	})
	require.NoError(t, err)

	// OXY has a cached Energy profile. AAPL is cached but wrong sector,
	// PSX has no cached profile at all so it cannot qualify.
	want := append(append([]string{}, LocalSeeds["Energy"]...), "OXY")
	assert.Equal(t, want, pools["Energy"])
}

func TestDiscoverCensusFilters(t *testing.T) {
	lister := &stubLister{
		res: outcome.Successful(),
		rows: []alphavantage.Listing{
			{Symbol: "BAE", Name: "BAE Systems Defence", Exchange: "LSE", AssetType: "Stock", Status: "Active"},
			{Symbol: "OLDD", Name: "Old Defense Corp", Exchange: "NYSE", AssetType: "Stock", Status: "Delisted"},
			{Symbol: "DFEN", Name: "Defense Sector ETF", Exchange: "NYSE", AssetType: "ETF", Status: "Active"},
			{Symbol: "", Name: "Blank Defence Holdings", Exchange: "NYSE", AssetType: "Stock", Status: "Active"},
			activeRow("KTOS", "Kratos Defense & Security Solutions", "NASDAQ"),
		},
	}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Defence"},
		Exchanges:      []string{"nyse", "NASDAQ"},
		NamesPerSector: 3,
	})
	require.NoError(t, err)

	want := append(append([]string{}, LocalSeeds["Defence"]...), "KTOS")
	assert.Equal(t, want, pools["Defence"])
}

func TestDiscoverPoolCapBoundsCensus(t *testing.T) {
	lister := &stubLister{
		res: outcome.Successful(),
		rows: []alphavantage.Listing{
			activeRow("AIR1", "First Aerospace Corp", "NYSE"),
			activeRow("AIR2", "Second Aerospace Corp", "NYSE"),
			activeRow("AIR3", "Third Aerospace Corp", "NYSE"),
		},
	}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Defence"},
		NamesPerSector: 3,
		PoolCap:        1,
	})
	require.NoError(t, err)

	want := append(append([]string{}, LocalSeeds["Defence"]...), "AIR1")
	assert.Equal(t, want, pools["Defence"], "pool cap keeps only the first census row")
}

func TestDiscoverDedupAndOversample(t *testing.T) {
	lister := &stubLister{
		res: outcome.Successful(),
		rows: []alphavantage.Listing{
			activeRow("LMT", "Lockheed Martin Aerospace & Defense", "NYSE"),
			activeRow("KTOS", "Kratos Defense & Security Solutions", "NASDAQ"),
		},
	}
	b := newTestBuilder(t, lister, nil)

	pools, err := b.Discover(context.Background(), Params{
		Sectors:        []string{"Defence"},
		NamesPerSector: 1,
	})
	require.NoError(t, err)

	// LMT already leads the seed list, the census copy must not repeat it.
	// namesPerSector=1 oversamples to 6 candidates.
	assert.Equal(t, []string{"LMT", "NOC", "GD", "RTX", "BA", "LHX"}, pools["Defence"])
}

func TestDiscoverRejectsBadParams(t *testing.T) {
	b := newTestBuilder(t, &stubLister{res: outcome.Successful()}, nil)

	tests := []struct {
		name   string
		params Params
	}{
		{"no sectors", Params{NamesPerSector: 3}},
		{"empty sector entry", Params{Sectors: []string{"Energy", ""}, NamesPerSector: 3}},
		{"zero names per sector", Params{Sectors: []string{"Energy"}}},
		{"negative pool cap", Params{Sectors: []string{"Energy"}, NamesPerSector: 3, PoolCap: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Discover(context.Background(), tt.params)
			assert.Error(t, err)
		})
	}
}

func TestSectorMatch(t *testing.T) {
	tests := []struct {
		name     string
		desired  []string
		sector   string
		industry string
		want     bool
	}{
		{"exact canon sector", []string{"Energy"}, "Energy", "", true},
		{"case and punctuation folded", []string{"health"}, "HEALTH-CARE", "", true},
		{"healthcare one word", []string{"Health"}, "Healthcare", "", true},
		{"industry substring", []string{"Metals"}, "Basic Materials", "Copper Mining", true},
		{"aerospace industry", []string{"Defence"}, "Industrials", "Aerospace & Defense", true},
		{"wrong sector", []string{"Energy"}, "Technology", "Consumer Electronics", false},
		{"unknown desired key", []string{"Utilities"}, "Utilities", "Electric", false},
		{"both fields empty", []string{"Energy"}, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sectorMatch(tt.desired, tt.sector, tt.industry))
		})
	}
}

func TestSeedsFor(t *testing.T) {
	assert.Equal(t, LocalSeeds["Defence"], seedsFor("defense"))
	assert.Equal(t, LocalSeeds["Defence"], seedsFor("Defence"))
	assert.Equal(t, LocalSeeds["Energy"], seedsFor("ENERGY"))
	assert.Equal(t, LocalSeeds["Health"], seedsFor("Healthcare"))
	assert.Nil(t, seedsFor("Utilities"))
}

func TestRowExclusion(t *testing.T) {
	nyse := map[string]bool{"NYSE": true}

	tests := []struct {
		name string
		row  alphavantage.Listing
		want string
	}{
		{"kept", activeRow("LMT", "Lockheed Martin", "NYSE"), ""},
		{"blank symbol", alphavantage.Listing{Name: "Ghost Corp", Exchange: "NYSE"}, "blank symbol"},
		{"delisted", alphavantage.Listing{Symbol: "X", Exchange: "NYSE", Status: "Delisted"}, "inactive"},
		{"etf", alphavantage.Listing{Symbol: "SPY", Exchange: "NYSE", AssetType: "ETF", Status: "Active"}, "not common stock"},
		{"off exchange", activeRow("BAE", "BAE Systems", "LSE"), "exchange not allowed"},
		{"blank status and type pass", alphavantage.Listing{Symbol: "THIN", Exchange: "NYSE"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowExclusion(tt.row, nyse))
		})
	}
}

func TestDefenceName(t *testing.T) {
	assert.True(t, defenceName("Kratos Defense & Security"))
	assert.True(t, defenceName("UK Defence Holdings"))
	assert.True(t, defenceName("surveillance technologies plc"))
	assert.False(t, defenceName("Apple Inc"))
	assert.False(t, defenceName(""))
}
