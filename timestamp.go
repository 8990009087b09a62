// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the textual formats [ParseTimestamp] tries, in
// order. A non-empty layouts argument to [ParseTimestamp] replaces this list.
var timestampLayouts = []string{
	"01/02/2006 15:04:05.000",
	"01/02/2006 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTimestamp parses a trace timestamp string, accepting
// "MM/DD/YYYY HH:MM:SS[:ms]" and "YYYY-MM-DDThh:mm:ss[.ms]", normalized to
// a UTC-naive value with microsecond precision. layouts, when non-empty,
// replaces the built-in layout list (see [AnalysisConfig.TimestampLayouts]).
func ParseTimestamp(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(layouts) == 0 {
		layouts = timestampLayouts
		// time.Parse reads fractional seconds only after '.' or ',', so the
		// colon before the milliseconds of "MM/DD/YYYY HH:MM:SS:ms" becomes '.'.
		if strings.Contains(s, "/") && strings.Count(s, ":") == 3 {
			i := strings.LastIndexByte(s, ':')
			s = s[:i] + "." + s[i+1:]
		}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Microsecond), true
		}
	}
	return time.Time{}, false
}

// composeTimestamp builds a timestamp from the discrete XML attributes a
// <traceitem> may carry (date/month/year/hour/minute/second/millisecond/
// nanosecond). It returns false when an insufficient set of fields is
// present (at minimum year, month, day, hour, minute, second).
func composeTimestamp(attrs map[string]string) (time.Time, bool) {
	get := func(keys ...string) (int, bool) {
		for _, k := range keys {
			if v, ok := attrs[k]; ok && v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return 0, false
				}
				return n, true
			}
		}
		return 0, false
	}

	year, okY := get("year")
	month, okMo := get("month")
	day, okD := get("date", "day")
	hour, okH := get("hour")
	minute, okMi := get("minute")
	second, okS := get("second")
	if !okY || !okMo || !okD || !okH || !okMi || !okS {
		return time.Time{}, false
	}
	millis, _ := get("millisecond")
	nanos, _ := get("nanosecond")
	if nanos == 0 && millis != 0 {
		nanos = millis * int(time.Millisecond)
	}
	if year < 100 {
		year += 2000
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, nanos, time.UTC)
	return t.Truncate(time.Microsecond), true
}

// FormatTimestamp renders t the way CLI consumers expect for --since/--until
// round-tripping and debugging output.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}
