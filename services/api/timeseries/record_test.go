package timeseries

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValueResolvesSuffixes(t *testing.T) {
	rec := Record{}
	v := rec.Variant("pm10")
	v.Set(VariantCorrected, Float(8))
	v.Nulls = FieldRaw

	got, ok := rec.Value("pm10_corrected")
	require.True(t, ok)
	assert.Equal(t, 8.0, *got)

	got, ok = rec.Value("pm10_raw")
	assert.True(t, ok)
	assert.Nil(t, got)

	_, ok = rec.Value("pm10_modeling")
	assert.False(t, ok)
	_, ok = rec.Value("pm25")
	assert.False(t, ok)
}

func TestRecordValuePrefersExactKey(t *testing.T) {
	rec := Record{}
	rec.Variant("pm10").Set(VariantRaw, Float(1))
	rec.Variant("pm10_raw").Set(VariantPrimary, Float(2))

	got, ok := rec.Value("pm10_raw")
	require.True(t, ok)
	assert.Equal(t, 2.0, *got)
}

func TestVariantSetClearsNull(t *testing.T) {
	v := &Variant{Nulls: FieldPrimary | FieldModeling}
	v.Set(VariantPrimary, Float(3))

	assert.False(t, v.Nulls.Has(VariantPrimary))
	assert.True(t, v.Nulls.Has(VariantModeling))
	assert.Equal(t, FieldPrimary, v.Present())
	assert.Equal(t, FieldPrimary|FieldModeling, v.Known())
}

func TestRecordMarshalJSON(t *testing.T) {
	rec := Record{
		TimestampValue: 1704067200000,
		Timestamp:      "01/01/2024 00:00",
		RawTimestamp:   MillisTimestamp(1704067200000),
	}
	pm10 := rec.Variant("pm10")
	pm10.Set(VariantCorrected, Float(8))
	pm10.Set(VariantRaw, Float(12))
	pm10.Nulls = FieldModeling
	pm10.Unit = "µg/m³"

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"timestampValue": 1704067200000,
		"timestamp": "01/01/2024 00:00",
		"rawTimestamp": 1704067200000,
		"pm10_corrected": 8,
		"pm10_raw": 12,
		"pm10_modeling": null,
		"pm10_unit": "µg/m³"
	}`, string(out))
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{}
	rec.Variant("o3").Set(VariantPrimary, Float(5))

	cp := rec.clone()
	*cp.Variants["o3"].Primary = 50
	cp.Variant("no2").Set(VariantPrimary, Float(1))

	assert.Equal(t, 5.0, *rec.Variants["o3"].Primary)
	assert.NotContains(t, rec.Variants, "no2")
}
