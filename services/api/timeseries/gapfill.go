package timeseries

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DefaultMaxBuckets caps the gap-fill lattice when no other limit is set.
const DefaultMaxBuckets = 100000

// ErrTooManyBuckets reports a lattice larger than the configured limit.
var ErrTooManyBuckets = errors.New("gap fill lattice too large")

// FillGaps aligns records of an aggregated time step onto the step lattice and
// inserts null placeholders for every missing bucket between the first and the
// last observed bucket. For StepNone the input is returned unchanged.
//
// When several records fall in the same bucket the one closest to the bucket
// start is kept. label, when non-nil, re-labels records after re-stamping.
// Lattices larger than DefaultMaxBuckets are not filled and records is
// returned unchanged.
func FillGaps(records []Record, step StepKind, label LabelFunc) []Record {
	out, err := FillGapsLimit(records, step, label, DefaultMaxBuckets)
	if err != nil {
		return records
	}
	return out
}

// FillGapsLimit is FillGaps with an explicit bucket limit. When the lattice
// between the first and last bucket exceeds maxBuckets it returns records
// unchanged together with ErrTooManyBuckets. A maxBuckets <= 0 selects
// DefaultMaxBuckets.
func FillGapsLimit(records []Record, step StepKind, label LabelFunc, maxBuckets int) ([]Record, error) {
	interval := step.IntervalMillis()
	if !step.Aggregated() || len(records) == 0 {
		return records, nil
	}
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	if label == nil {
		label = defaultLabel
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		switch {
		case a.TimestampValue < b.TimestampValue:
			return -1
		case a.TimestampValue > b.TimestampValue:
			return 1
		}
		return 0
	})

	first := floorBucket(sorted[0].TimestampValue, interval)
	last := floorBucket(sorted[len(sorted)-1].TimestampValue, interval)
	buckets := bucketCount(first, last, interval)
	if buckets > uint64(maxBuckets) {
		return records, fmt.Errorf("%w: %d buckets, limit %d", ErrTooManyBuckets, buckets, maxBuckets)
	}

	byBucket := make(map[int64]int, len(sorted))
	for i, rec := range sorted {
		bucket := floorBucket(rec.TimestampValue, interval)
		if j, ok := byBucket[bucket]; ok {
			if rec.TimestampValue-bucket >= sorted[j].TimestampValue-bucket {
				continue
			}
		}
		byBucket[bucket] = i
	}

	template := gapTemplate(sorted)
	out := make([]Record, 0, int(buckets))
	for bucket := first; bucket <= last; bucket += interval {
		if i, ok := byBucket[bucket]; ok {
			rec := sorted[i].clone()
			rec.TimestampValue = bucket
			rec.Timestamp = label(bucket)
			out = append(out, rec)
			continue
		}
		out = append(out, placeholder(bucket, template, label))
	}
	return out, nil
}

// bucketCount is the inclusive number of buckets from first to last. The
// unsigned difference stays exact when last-first overflows int64.
func bucketCount(first, last, interval int64) uint64 {
	return (uint64(last)-uint64(first))/uint64(interval) + 1
}

// floorBucket rounds ts down to a multiple of interval, also for pre-1970 values.
func floorBucket(ts, interval int64) int64 {
	bucket := ts / interval * interval
	if ts < 0 && ts%interval != 0 {
		bucket -= interval
	}
	return bucket
}

type gapField struct {
	known Field
	unit  string
}

// gapTemplate collects, per series key, every field seen anywhere in the
// dataset plus a sample unit.
func gapTemplate(records []Record) map[string]gapField {
	template := make(map[string]gapField)
	for _, rec := range records {
		for key, v := range rec.Variants {
			entry := template[key]
			entry.known |= v.Known()
			if entry.unit == "" {
				entry.unit = v.Unit
			}
			template[key] = entry
		}
	}
	return template
}

func placeholder(bucket int64, template map[string]gapField, label LabelFunc) Record {
	rec := Record{
		TimestampValue: bucket,
		Timestamp:      label(bucket),
		Variants:       make(map[string]*Variant, len(template)),
		Placeholder:    true,
	}
	for key, entry := range template {
		if entry.known == 0 {
			continue
		}
		rec.Variants[key] = &Variant{Unit: entry.unit, Nulls: entry.known}
	}
	return rec
}

func defaultLabel(ts int64) string {
	return FromMillis(ts).Format(time.RFC3339)
}
