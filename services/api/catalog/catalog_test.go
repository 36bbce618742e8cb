package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()

	assert.Equal(t, "µg/m³", cat.Unit("pm10"))
	assert.Equal(t, "mg/m³", cat.Unit("CO"))
	assert.Equal(t, "PM2.5", cat.Name("pm25"))
	assert.Equal(t, "unknown", cat.Name("unknown"))
	assert.Empty(t, cat.Unit("unknown"))
	assert.NotEmpty(t, cat.Palette())
	assert.Len(t, cat.Thresholds("pm10"), 6)
	assert.Nil(t, cat.Thresholds("co"))

	color, ok := cat.Color("no2")
	assert.True(t, ok)
	assert.Equal(t, "#f6bd16", color)

	pollutants := cat.Pollutants()
	require.NotEmpty(t, pollutants)
	assert.Equal(t, "co", pollutants[0].Code)
}

func TestPaletteIsACopy(t *testing.T) {
	cat := Default()
	p := cat.Palette()
	p[0] = "#000000"
	assert.NotEqual(t, "#000000", cat.Palette()[0])
}

func TestThresholdsEqual(t *testing.T) {
	cat := Default()
	assert.True(t, cat.Thresholds("pm25").Equal(cat.Thresholds("pm1")))
	assert.False(t, cat.Thresholds("pm25").Equal(cat.Thresholds("pm10")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := `
palette: ["#111111"]
pollutants:
  PM10:
    name: Particles
    unit: ug/m3
    thresholds:
      - {min: 0, max: 50, label: ok, color: "#00ff00"}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Particles", cat.Name("pm10"))
	assert.Equal(t, []string{"#111111"}, cat.Palette())
	_, ok := cat.Color("pm10")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing palette", doc: "pollutants: {}"},
		{name: "inverted band", doc: "palette: [\"#fff\"]\npollutants:\n  pm10:\n    thresholds:\n      - {min: 10, max: 1}\n"},
		{name: "not yaml", doc: "palette: [unterminated"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
