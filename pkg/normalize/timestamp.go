package normalize

import (
	"regexp"
	"time"

	errs "twscraper/pkg/errors"
)

// TimestampLayout is the created_at format of timeline records,
// e.g. "Sun Jul 01 23:04:00 +0000 2018".
const TimestampLayout = "Mon Jan 02 15:04:05 -0700 2006"

// time.Parse accepts single-digit hours, so the shape is checked first
var timestampShape = regexp.MustCompile(
	`^(Mon|Tue|Wed|Thu|Fri|Sat|Sun) (Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{2} \d{2}:\d{2}:\d{2} [+-]\d{4} \d{4}$`)

// ParseTimestamp parses a created_at string into an instant that keeps the
// source UTC offset. Any deviation from TimestampLayout is a parse error.
func ParseTimestamp(value string) (time.Time, error) {
	if !timestampShape.MatchString(value) {
		return time.Time{}, errs.Parse(nil, "timestamp %q does not match %q", value, TimestampLayout)
	}

	t, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, errs.Parse(err, "timestamp %q: %v", value, err)
	}

	// Parse picks time.Local when the offset happens to match it; pin the
	// location to the offset so results do not depend on the host zone.
	_, offset := t.Zone()
	if offset == 0 {
		return t.UTC(), nil
	}
	return t.In(time.FixedZone("", offset)), nil
}
