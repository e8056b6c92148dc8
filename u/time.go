package u

import "time"

// TimestampFormat is DD-MM-YYYY-HH-MM-SS in time.Format() notation
const TimestampFormat = "02-01-2006-15-04-05"

// FormatTimestamp formats t as DD-MM-YYYY-HH-MM-SS in local time
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampFormat)
}

// TimestampName returns e.g. "archive_19-10-2026-14-03-59.gz"
// for prefix "archive" and ext ".gz"
func TimestampName(prefix string, t time.Time, ext string) string {
	return prefix + "_" + FormatTimestamp(t) + ext
}
