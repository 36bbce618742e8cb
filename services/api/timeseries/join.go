package timeseries

import (
	"slices"
	"sort"
	"time"
)

const (
	rawStepTolerance  = int64(time.Second / time.Millisecond)
	modelingTolerance = int64(30 * time.Minute / time.Millisecond)
)

// Observation is one reading as delivered by an upstream service.
type Observation struct {
	Timestamp      RawTimestamp `json:"timestamp"`
	Value          *float64     `json:"value,omitempty"`
	CorrectedValue *float64     `json:"correctedValue,omitempty"`
	RawValue       *float64     `json:"rawValue,omitempty"`
	Unit           string       `json:"unit,omitempty"`
}

// JoinInput selects the series to merge and how to read them.
type JoinInput struct {
	// Series holds one observation list per pollutant code (normal mode)
	// or per station id (comparison mode).
	Series map[string][]Observation
	// Modeling holds optional model-predicted sub-series under the same keys.
	Modeling     map[string][]Observation
	SelectedKeys []string
	Mode         Mode
	// Pollutant is the single pollutant plotted in comparison mode.
	Pollutant string
	// DualCalibration marks sources publishing corrected and raw values.
	DualCalibration bool
	Step            StepKind
}

type timedObservation struct {
	ts  int64
	idx int
	obs Observation
}

// Join merges the selected series into one record per distinct timestamp,
// sorted ascending. Observations with malformed timestamps are skipped.
func Join(in JoinInput, opts ...Option) ([]Record, error) {
	o := newOptions(opts)

	mode, err := ParseMode(string(in.Mode))
	if err != nil {
		return nil, err
	}
	step, err := ParseStep(string(in.Step))
	if err != nil {
		return nil, err
	}

	keys := uniqueKeys(in.SelectedKeys)
	if len(keys) == 0 {
		return []Record{}, nil
	}

	tolerance := rawStepTolerance
	if step.Aggregated() {
		tolerance = step.IntervalMillis() / 2
	}

	measured := make(map[string][]timedObservation, len(keys))
	modeled := make(map[string][]timedObservation, len(keys))
	seen := make(map[int64]struct{})
	union := make([]int64, 0)
	for _, key := range keys {
		list := prepareSeries(key, in.Series[key], o.logger)
		measured[key] = list
		for _, item := range list {
			if _, ok := seen[item.ts]; ok {
				continue
			}
			seen[item.ts] = struct{}{}
			union = append(union, item.ts)
		}
		modeled[key] = prepareSeries(key, in.Modeling[key], o.logger)
	}
	slices.Sort(union)

	label := o.label()
	records := make([]Record, 0, len(union))
	for _, ts := range union {
		rec := Record{TimestampValue: ts, Timestamp: label(ts)}
		for _, key := range keys {
			if match, ok := nearest(measured[key], ts, tolerance); ok {
				if rec.RawTimestamp.IsZero() && match.ts == ts {
					rec.RawTimestamp = match.obs.Timestamp
				}
				populate(&rec, key, match.obs, mode, in.DualCalibration)
			}
			if match, ok := nearest(modeled[key], ts, modelingTolerance); ok {
				val := SanitizeValue(firstValue(match.obs.Value, match.obs.CorrectedValue, match.obs.RawValue))
				if val != nil {
					rec.Variant(key).Set(VariantModeling, val)
				}
				if v, ok := rec.Variants[key]; ok && v.Unit == "" {
					v.Unit = match.obs.Unit
				}
			}
			if v, ok := rec.Variants[key]; ok && v.Unit == "" {
				unitKey := key
				if mode == ModeComparison {
					unitKey = in.Pollutant
				}
				v.Unit = o.unitFor(unitKey)
			}
		}
		records = append(records, rec)
	}

	o.logger.Debug("joined series",
		"mode", mode,
		"step", step,
		"keys", len(keys),
		"records", len(records),
	)
	return records, nil
}

func uniqueKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// prepareSeries normalizes timestamps and sorts by time, keeping input order
// among equal timestamps.
func prepareSeries(key string, observations []Observation, logger Logger) []timedObservation {
	out := make([]timedObservation, 0, len(observations))
	for i, obs := range observations {
		ts, err := NormalizeTimestamp(obs.Timestamp)
		if err != nil {
			logger.Warn("skipping observation with malformed timestamp",
				"series", key,
				"timestamp", obs.Timestamp.String(),
				"error", err,
			)
			continue
		}
		out = append(out, timedObservation{ts: ts, idx: i, obs: obs})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ts < out[j].ts })
	return out
}

// nearest returns the observation closest to ts within tolerance; on equal
// distance the one that came first in the input wins.
func nearest(list []timedObservation, ts, tolerance int64) (timedObservation, bool) {
	lo := sort.Search(len(list), func(i int) bool { return list[i].ts >= ts-tolerance })
	best := -1
	var bestDist int64
	for i := lo; i < len(list) && list[i].ts <= ts+tolerance; i++ {
		dist := list[i].ts - ts
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist || (dist == bestDist && list[i].idx < list[best].idx) {
			best = i
			bestDist = dist
		}
	}
	if best == -1 {
		return timedObservation{}, false
	}
	return list[best], true
}

func populate(rec *Record, key string, obs Observation, mode Mode, dual bool) {
	corrected := SanitizeValue(obs.CorrectedValue)
	raw := SanitizeValue(obs.RawValue)
	value := SanitizeValue(obs.Value)

	var primary *float64
	switch {
	case mode == ModeComparison:
		primary = firstValue(corrected, raw, value)
	case dual:
		if corrected == nil && raw == nil {
			primary = value
		}
	default:
		primary = firstValue(value, corrected, raw)
		corrected, raw = nil, nil
	}

	if primary == nil && corrected == nil && raw == nil {
		return
	}
	v := rec.Variant(key)
	if primary != nil {
		v.Set(VariantPrimary, primary)
	}
	if corrected != nil {
		v.Set(VariantCorrected, corrected)
	}
	if raw != nil {
		v.Set(VariantRaw, raw)
	}
	if v.Unit == "" {
		v.Unit = obs.Unit
	}
}

func firstValue(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
