package universe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/intrinsic/internal/diskcache"
	"github.com/wonny/intrinsic/internal/external/alphavantage"
	"github.com/wonny/intrinsic/internal/fundamentals"
	"github.com/wonny/intrinsic/internal/outcome"
	"github.com/wonny/intrinsic/pkg/logger"
)

// DefaultExchanges is the census filter applied when the caller gives none.
var DefaultExchanges = []string{"NYSE", "NASDAQ", "AMEX"}

// LocalSeeds are the curated per-sector tickers. They are injected ahead of
// census candidates and keep discovery usable when the census is down.
var LocalSeeds = map[string][]string{
	"Defence": {"LMT", "NOC", "GD", "RTX", "BA", "LHX", "TXT", "HII", "CW", "HEI", "TDG", "AXON"},
	"Energy":  {"XOM", "CVX", "SLB", "HAL", "COP", "EOG"},
	"Health":  {"JNJ", "PFE", "MRK", "UNH", "LLY", "ABBV"},
	"Metals":  {"FCX", "BHP", "RIO", "VALE"},
}

// gicsCanon maps a normalized sector key to the GICS names it answers to.
var gicsCanon = map[string][]string{
	"health":  {"Health Care", "Healthcare"},
	"energy":  {"Energy"},
	"metals":  {"Materials", "Metals", "Metals & Mining", "Steel", "Aluminum", "Copper"},
	"defence": {"Aerospace & Defense", "Defense", "Aerospace"},
	"defense": {"Aerospace & Defense", "Defense", "Aerospace"},
}

var defenceNameKeys = []string{"DEFENSE", "DEFENCE", "AEROSPACE", "WEAPON", "MILITARY", "SURVEILLANCE"}

var nonLetter = regexp.MustCompile(`[^a-z]`)

// Params controls one discovery run. Seeds, when set, override the built-in
// LocalSeeds table per sector; sectors it does not name keep the defaults.
type Params struct {
	Sectors        []string            `yaml:"sectors" json:"sectors" validate:"required,min=1,dive,required"`
	Exchanges      []string            `yaml:"exchanges" json:"exchanges"`
	NamesPerSector int                 `yaml:"names_per_sector" json:"names_per_sector" validate:"required,min=1"`
	PoolCap        int                 `yaml:"pool_cap" json:"pool_cap" validate:"gte=0"`
	Seeds          map[string][]string `yaml:"seeds" json:"seeds,omitempty"`
}

// Validate checks the params using go-playground/validator.
func (p Params) Validate() error {
	return validator.New().Struct(p)
}

// Lister supplies the symbol census. *alphavantage.Client satisfies it.
type Lister interface {
	ListingStatus(ctx context.Context, state, date string) ([]alphavantage.Listing, outcome.Result)
}

// Builder assembles per-sector candidate pools from the census, the cached
// company profiles and the curated seed lists.
// ⭐ SSOT: 섹터 풀 구성은 이 빌더에서만
type Builder struct {
	lister    Lister
	overviews *diskcache.Store
	logger    *logger.Logger
}

// NewBuilder creates a universe builder. overviews may be nil, which limits
// census matching to the Defence name heuristic.
func NewBuilder(lister Lister, overviews *diskcache.Store, log *logger.Logger) *Builder {
	return &Builder{lister: lister, overviews: overviews, logger: log}
}

// Discover returns an oversampled candidate pool per requested sector,
// namesPerSector*6 symbols each. Seeds come first so a cold cache still
// yields a usable pool; census candidates follow, matched by name keywords
// (Defence) or by the cached profile's sector. Profiles are only read from
// the cache here, discovery itself never calls the vendor per symbol.
func (b *Builder) Discover(ctx context.Context, p Params) (map[string][]string, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("universe params invalid: %w", err)
	}

	take := p.NamesPerSector
	if take < 1 {
		take = 1
	}
	take *= 6

	pools := make(map[string][]string, len(p.Sectors))

	rows, res := b.lister.ListingStatus(ctx, "active", "")
	if !res.OK() || len(rows) == 0 {
		b.logger.WithField("reason", res.Reason).Warn("Listing census unavailable, building pools from local seeds")
		for _, sector := range p.Sectors {
			pools[sector] = truncate(dedup(seedPool(p, sector)), take)
		}
		return pools, nil
	}

	census := b.filterCensus(rows, p)
	b.logger.WithFields(map[string]interface{}{
		"census": len(rows),
		"kept":   len(census),
	}).Debug("Census filtered")

	for _, sector := range p.Sectors {
		pool := append([]string{}, seedPool(p, sector)...)
		pool = append(pool, b.censusCandidates(sector, census)...)
		pool = truncate(dedup(pool), take)
		b.logger.WithFields(map[string]interface{}{
			"sector":     sector,
			"candidates": len(pool),
		}).Info("Sector pool assembled")
		pools[sector] = pool
	}

	return pools, nil
}

// filterCensus keeps active common stocks on the allowed exchanges, capped
// at PoolCap rows.
func (b *Builder) filterCensus(rows []alphavantage.Listing, p Params) []alphavantage.Listing {
	allowed := make(map[string]bool, len(p.Exchanges))
	for _, e := range p.Exchanges {
		allowed[strings.ToUpper(strings.TrimSpace(e))] = true
	}

	kept := make([]alphavantage.Listing, 0, len(rows))
	for _, row := range rows {
		if reason := rowExclusion(row, allowed); reason != "" {
			continue
		}
		kept = append(kept, row)
		if p.PoolCap > 0 && len(kept) >= p.PoolCap {
			break
		}
	}
	return kept
}

// rowExclusion returns why a census row is dropped, or "" to keep it.
// Blank status and assetType pass so thin census files stay usable.
func rowExclusion(row alphavantage.Listing, allowed map[string]bool) string {
	if strings.TrimSpace(row.Symbol) == "" {
		return "blank symbol"
	}
	if row.Status != "" && !strings.EqualFold(row.Status, "Active") {
		return "inactive"
	}
	if row.AssetType != "" && !strings.EqualFold(row.AssetType, "Stock") {
		return "not common stock"
	}
	if len(allowed) > 0 && !allowed[strings.ToUpper(strings.TrimSpace(row.Exchange))] {
		return "exchange not allowed"
	}
	return ""
}

// censusCandidates returns census symbols that look like sector members.
// Defence matches company name keywords; every other sector matches the
// cached profile's sector/industry against the canonical GICS names.
func (b *Builder) censusCandidates(sector string, census []alphavantage.Listing) []string {
	key := normKey(sector)
	out := make([]string, 0)

	if key == "defence" || key == "defense" {
		for _, row := range census {
			if defenceName(row.Name) {
				out = append(out, strings.ToUpper(strings.TrimSpace(row.Symbol)))
			}
		}
		return out
	}

	if b.overviews == nil {
		return out
	}
	desired := []string{sector}
	for _, row := range census {
		sym := strings.ToUpper(strings.TrimSpace(row.Symbol))
		var profile fundamentals.CompanyProfile
		if !b.overviews.Get(fundamentals.OverviewCacheKey(sym), &profile) {
			continue
		}
		if sectorMatch(desired, profile.Sector, profile.Industry) {
			out = append(out, sym)
		}
	}
	return out
}

// sectorMatch reports whether a profile's sector or industry falls under
// any of the desired sectors, first by exact normalized sector name, then
// by substring over the combined sector+industry text.
func sectorMatch(desired []string, sector, industry string) bool {
	if sector == "" && industry == "" {
		return false
	}
	sNorm := normKey(sector)
	haystack := strings.ToLower(sector + " " + industry)
	for _, d := range desired {
		for _, cand := range gicsCanon[normKey(d)] {
			if sector != "" && normKey(cand) == sNorm {
				return true
			}
			if strings.Contains(haystack, strings.ToLower(cand)) {
				return true
			}
		}
	}
	return false
}

func defenceName(name string) bool {
	n := strings.ToUpper(name)
	for _, k := range defenceNameKeys {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// seedPool resolves the seed list for a sector, preferring a caller-supplied
// override from Params.Seeds before the built-in table.
func seedPool(p Params, sector string) []string {
	if seeds, ok := p.Seeds[sector]; ok {
		return seeds
	}
	want := normKey(sector)
	for key, seeds := range p.Seeds {
		if normKey(key) == want {
			return seeds
		}
	}
	return seedsFor(sector)
}

// seedsFor resolves the seed list for a sector label, tolerant of case and
// the defence/defense spelling split.
func seedsFor(sector string) []string {
	switch normKey(sector) {
	case "defence", "defense":
		return LocalSeeds["Defence"]
	case "energy":
		return LocalSeeds["Energy"]
	case "health", "healthcare":
		return LocalSeeds["Health"]
	case "metals":
		return LocalSeeds["Metals"]
	}
	return nil
}

func normKey(s string) string {
	return nonLetter.ReplaceAllString(strings.ToLower(s), "")
}

func dedup(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func truncate(symbols []string, n int) []string {
	if len(symbols) > n {
		return symbols[:n]
	}
	return symbols
}
