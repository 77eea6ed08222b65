package clickhouse

import "time"

// Bucket is the sealed set of aggregation granularities. Keeping it an
// enumeration (rather than a free-form interval string) guarantees that only
// values from this table can ever reach the toStartOfInterval expression,
// which is built by string formatting rather than parameter binding.
type Bucket int

const (
	Bucket5s Bucket = iota
	Bucket30s
	Bucket1m
	Bucket3m
	Bucket15m
	Bucket1h
	Bucket6h
	Bucket1d
)

// Interval returns the ClickHouse INTERVAL expression for the bucket.
func (b Bucket) Interval() string {
	switch b {
	case Bucket5s:
		return "5 SECOND"
	case Bucket30s:
		return "30 SECOND"
	case Bucket3m:
		return "3 MINUTE"
	case Bucket15m:
		return "15 MINUTE"
	case Bucket1h:
		return "1 HOUR"
	case Bucket6h:
		return "6 HOUR"
	case Bucket1d:
		return "1 DAY"
	default:
		return "1 MINUTE"
	}
}

// Label returns the short human label shown next to charts.
func (b Bucket) Label() string {
	switch b {
	case Bucket5s:
		return "5s"
	case Bucket30s:
		return "30s"
	case Bucket3m:
		return "3m"
	case Bucket15m:
		return "15m"
	case Bucket1h:
		return "1h"
	case Bucket6h:
		return "6h"
	case Bucket1d:
		return "1d"
	default:
		return "1m"
	}
}

// DetermineBucket maps a requested time span to a bucket granularity so the
// aggregated series stays at roughly 60-170 points regardless of range.
// A missing bound defaults to one-minute buckets.
func DetermineBucket(start, end *time.Time) Bucket {
	if start == nil || end == nil {
		return Bucket1m
	}

	span := end.Sub(*start)
	switch {
	case span <= 5*time.Minute:
		return Bucket5s
	case span <= 30*time.Minute:
		return Bucket30s
	case span <= 2*time.Hour:
		return Bucket1m
	case span <= 6*time.Hour:
		return Bucket3m
	case span <= 24*time.Hour:
		return Bucket15m
	case span <= 7*24*time.Hour:
		return Bucket1h
	case span <= 30*24*time.Hour:
		return Bucket6h
	default:
		return Bucket1d
	}
}
