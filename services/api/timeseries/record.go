package timeseries

import (
	"encoding/json"
	"strings"
)

// Field is a bit set over the variants of a series key.
type Field uint8

const (
	FieldPrimary Field = 1 << iota
	FieldCorrected
	FieldRaw
	FieldModeling
)

func fieldOf(kind VariantKind) Field {
	switch kind {
	case VariantCorrected:
		return FieldCorrected
	case VariantRaw:
		return FieldRaw
	case VariantModeling:
		return FieldModeling
	default:
		return FieldPrimary
	}
}

// Has reports whether the variant's bit is set.
func (f Field) Has(kind VariantKind) bool {
	return f&fieldOf(kind) != 0
}

// Variant holds the values one record carries for one series key. A nil value
// is absent unless its bit is set in Nulls, in which case it is an explicit gap.
type Variant struct {
	Primary   *float64
	Corrected *float64
	Raw       *float64
	Modeling  *float64
	Unit      string
	Nulls     Field
}

// Get returns the value of a variant, nil when absent or null.
func (v *Variant) Get(kind VariantKind) *float64 {
	if v == nil {
		return nil
	}
	switch kind {
	case VariantCorrected:
		return v.Corrected
	case VariantRaw:
		return v.Raw
	case VariantModeling:
		return v.Modeling
	default:
		return v.Primary
	}
}

// Set stores a value; a nil value clears the field.
func (v *Variant) Set(kind VariantKind, val *float64) {
	switch kind {
	case VariantCorrected:
		v.Corrected = val
	case VariantRaw:
		v.Raw = val
	case VariantModeling:
		v.Modeling = val
	default:
		v.Primary = val
	}
	if val != nil {
		v.Nulls &^= fieldOf(kind)
	}
}

// Present returns the set of variants holding a value.
func (v *Variant) Present() Field {
	var f Field
	for _, kind := range variantOrder {
		if v.Get(kind) != nil {
			f |= fieldOf(kind)
		}
	}
	return f
}

// Known returns the variants that are either populated or explicit nulls.
func (v *Variant) Known() Field {
	return v.Present() | v.Nulls
}

func (v *Variant) clone() *Variant {
	out := &Variant{Unit: v.Unit, Nulls: v.Nulls}
	for _, kind := range variantOrder {
		if val := v.Get(kind); val != nil {
			copied := *val
			out.Set(kind, &copied)
		}
	}
	return out
}

// Record is one row of the chart timeline.
type Record struct {
	TimestampValue int64
	Timestamp      string
	RawTimestamp   RawTimestamp
	Variants       map[string]*Variant
	Placeholder    bool
}

// Variant returns the variant for key, creating it when missing.
func (r *Record) Variant(key string) *Variant {
	if r.Variants == nil {
		r.Variants = make(map[string]*Variant)
	}
	v, ok := r.Variants[key]
	if !ok {
		v = &Variant{}
		r.Variants[key] = v
	}
	return v
}

// Value resolves a flat data key such as "pm10_corrected". The second result
// reports whether the field exists on the record, either as a value or as null.
func (r Record) Value(dataKey string) (*float64, bool) {
	key, kind, ok := r.resolve(dataKey)
	if !ok {
		return nil, false
	}
	v := r.Variants[key]
	if val := v.Get(kind); val != nil {
		return val, true
	}
	return nil, v.Nulls.Has(kind)
}

func (r Record) resolve(dataKey string) (string, VariantKind, bool) {
	if _, ok := r.Variants[dataKey]; ok {
		return dataKey, VariantPrimary, true
	}
	for _, kind := range variantOrder[1:] {
		base, found := strings.CutSuffix(dataKey, kind.suffix())
		if !found {
			continue
		}
		if _, ok := r.Variants[base]; ok {
			return base, kind, true
		}
	}
	return "", "", false
}

func (r Record) clone() Record {
	out := r
	out.Variants = make(map[string]*Variant, len(r.Variants))
	for key, v := range r.Variants {
		out.Variants[key] = v.clone()
	}
	return out
}

// MarshalJSON emits the flat shape charting libraries read: one field per
// series key and variant, null for explicit gaps, absent for missing values.
func (r Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"timestampValue": r.TimestampValue,
		"timestamp":      r.Timestamp,
	}
	if !r.RawTimestamp.IsZero() {
		out["rawTimestamp"] = r.RawTimestamp
	}
	for key, v := range r.Variants {
		for _, kind := range variantOrder {
			if val := v.Get(kind); val != nil {
				out[DataKey(key, kind)] = *val
			} else if v.Nulls.Has(kind) {
				out[DataKey(key, kind)] = nil
			}
		}
		if v.Unit != "" {
			out[key+"_unit"] = v.Unit
		}
	}
	return json.Marshal(out)
}
