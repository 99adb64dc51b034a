package transform

import (
	"time"
	// Embedded zone database so Europe/Zurich resolves on hosts without
	// a system zoneinfo directory.
	_ "time/tzdata"
)

// ZoneName is the civil timezone the vendor records wall-clock times in.
const ZoneName = "Europe/Zurich"

// TimestampLayout is the canonical output format: ISO 8601 UTC with Z.
const TimestampLayout = "2006-01-02T15:04:05Z"

// naiveLayouts are the wall-clock formats seen in vendor workbooks, tried
// in order. Cell values come back from the workbook loader already
// formatted, so both ISO-style and the default spreadsheet short form
// appear in practice.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"1-2-06 15:04",
	"1/2/06 15:04",
}

// LoadZone returns the fixed local timezone used for normalization.
func LoadZone() (*time.Location, error) {
	return time.LoadLocation(ZoneName)
}

// parseNaive parses a wall-clock string without zone information. The
// returned time carries the wall-clock fields in UTC purely as a container;
// resolveLocal assigns the real zone.
func parseNaive(s string) (time.Time, bool) {
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveLocal interprets a naive wall-clock time in loc and returns the
// corresponding instant.
//
// DST handling:
//   - Ambiguous times (the repeated hour of the autumn fallback) are
//     resolved by inference from the previous instant in the series: the
//     earliest candidate that keeps the sequence non-decreasing wins, so
//     the first pass through the repeated hour maps to the pre-transition
//     offset and the second pass to the post-transition offset. With no
//     previous instant the earlier candidate is chosen.
//   - Nonexistent times (the skipped hour of the spring forward) are
//     shifted forward by the gap into the valid range.
func resolveLocal(prev time.Time, naive time.Time, loc *time.Location) time.Time {
	year, month, day := naive.Date()
	hour, minute, sec := naive.Clock()

	base := time.Date(year, month, day, hour, minute, sec, 0, loc)

	sameWall := func(t time.Time) bool {
		y, mo, d := t.Date()
		h, mi, s := t.Clock()
		return y == year && mo == month && d == day && h == hour && mi == minute && s == sec
	}

	var candidates []time.Time
	for _, t := range []time.Time{base.Add(-time.Hour), base, base.Add(time.Hour)} {
		local := t.In(loc)
		if !sameWall(local) {
			continue
		}
		duplicate := false
		for _, c := range candidates {
			if c.Equal(local) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			candidates = append(candidates, local)
		}
	}

	switch len(candidates) {
	case 0:
		// Wall clock inside the spring-forward gap: time.Date already
		// normalized it forward past the transition.
		return base
	case 1:
		return candidates[0]
	default:
		if candidates[1].Before(candidates[0]) {
			candidates[0], candidates[1] = candidates[1], candidates[0]
		}
		if !prev.IsZero() && candidates[0].Before(prev) {
			return candidates[1]
		}
		return candidates[0]
	}
}
