package fundamentals

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// safeFloat coerces a decoded JSON value to a nullable float. The vendor
// serializes missing numbers as "None", "" or "NaN" strings; those and
// anything unparseable become nil, never zero.
func safeFloat(v interface{}) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		f := t
		return &f
	case string:
		s := strings.TrimSpace(t)
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

// asString returns the trimmed string form of a decoded JSON value,
// "" for anything that is not a string.
func asString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// parsePeriodEnd accepts the vendor's fiscalDateEnding spellings: a full
// ISO date, or a bare year which maps to that year's Dec 31.
func parsePeriodEnd(v interface{}) (time.Time, bool) {
	s := asString(v)
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, true
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil && y > 0 {
			return time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// NormalizeStatement maps one raw vendor statement payload to a canonical
// Series. Records without a parseable period end are dropped; the rest are
// sorted ascending so the newest period lands last.
func NormalizeStatement(payload map[string]interface{}, kind StatementKind) Series {
	out := Series{Kind: kind}
	schema, ok := statementSchemas[kind]
	if !ok || payload == nil {
		return out
	}
	list, ok := payload[schema.listField].([]interface{})
	if !ok {
		return out
	}
	for _, item := range list {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		end, ok := parsePeriodEnd(rec["fiscalDateEnding"])
		if !ok {
			continue
		}
		values := make(map[string]*float64, len(schema.fields))
		for _, f := range schema.fields {
			values[f.canonical] = safeFloat(rec[f.vendor])
		}
		out.Periods = append(out.Periods, PeriodRecord{PeriodEnd: end, Values: values})
	}
	sort.SliceStable(out.Periods, func(i, j int) bool {
		return out.Periods[i].PeriodEnd.Before(out.Periods[j].PeriodEnd)
	})
	return out
}

// NormalizeOverview maps the raw OVERVIEW payload to a CompanyProfile.
func NormalizeOverview(payload map[string]interface{}) CompanyProfile {
	var p CompanyProfile
	if payload == nil {
		return p
	}
	for _, f := range overviewSchema {
		f.assign(&p, payload[f.vendor])
	}
	return p
}
