package canon

import (
	"strings"
	"time"
)

// releaseLayouts covers the free-text dates storefronts publish ("14 Sep, 2018",
// "Sep 14, 2018", "September 2018", "2018").
var releaseLayouts = []string{
	"2006-01-02",
	"2 Jan, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January, 2006",
	"2 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"02.01.2006",
	"2006/01/02",
	"Jan 2006",
	"January 2006",
	"Jan, 2006",
	"2006",
	time.RFC3339,
}

// ReleaseDate converts a storefront release date into YYYY-MM-DD. Empty input,
// "coming soon" style placeholders and anything unparseable return ok=false.
func ReleaseDate(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.Contains(strings.ToLower(value), "soon") {
		return "", false
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// ReleaseDateFromUnix formats a unix timestamp (seconds) as YYYY-MM-DD in UTC.
func ReleaseDateFromUnix(seconds int64) (string, bool) {
	if seconds <= 0 {
		return "", false
	}
	return time.Unix(seconds, 0).UTC().Format("2006-01-02"), true
}
