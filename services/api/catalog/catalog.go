package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Band is one quality-threshold band of a pollutant, e.g. "good" between 0 and 20.
type Band struct {
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Label string  `yaml:"label" json:"label"`
	Color string  `yaml:"color" json:"color"`
}

// Thresholds is the ordered list of bands for a pollutant.
type Thresholds []Band

// Equal reports whether both band lists are identical field by field.
func (t Thresholds) Equal(other Thresholds) bool {
	return slices.Equal(t, other)
}

// Pollutant holds the static display metadata of a pollutant code.
type Pollutant struct {
	Code       string     `yaml:"-" json:"code"`
	Name       string     `yaml:"name" json:"name"`
	Unit       string     `yaml:"unit" json:"unit"`
	Color      string     `yaml:"color" json:"color,omitempty"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds,omitempty"`
}

// Catalog is the lookup table consumed by the chart pipeline.
type Catalog struct {
	pollutants map[string]Pollutant
	palette    []string
}

type document struct {
	Palette    []string             `yaml:"palette"`
	Pollutants map[string]Pollutant `yaml:"pollutants"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	cat, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded document is invalid: %v", err))
	}
	return cat
}

// Load reads a catalog YAML document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a catalog YAML document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Palette) == 0 {
		return nil, errors.New("palette must list at least one color")
	}

	cat := &Catalog{
		pollutants: make(map[string]Pollutant, len(doc.Pollutants)),
		palette:    doc.Palette,
	}
	for code, p := range doc.Pollutants {
		key := normalizeCode(code)
		if key == "" {
			return nil, errors.New("pollutant code must not be empty")
		}
		p.Code = key
		for i, band := range p.Thresholds {
			if band.Max < band.Min {
				return nil, fmt.Errorf("pollutant %s: band %d has max < min", key, i)
			}
		}
		cat.pollutants[key] = p
	}
	return cat, nil
}

// Lookup returns the pollutant entry for a code.
func (c *Catalog) Lookup(code string) (Pollutant, bool) {
	p, ok := c.pollutants[normalizeCode(code)]
	return p, ok
}

// Unit returns the registered unit of a pollutant, or "" when unknown.
func (c *Catalog) Unit(code string) string {
	p, _ := c.Lookup(code)
	return p.Unit
}

// Name returns the display name, falling back to the code itself.
func (c *Catalog) Name(code string) string {
	if p, ok := c.Lookup(code); ok && p.Name != "" {
		return p.Name
	}
	return code
}

// Color returns the registered color of a pollutant.
func (c *Catalog) Color(code string) (string, bool) {
	p, ok := c.Lookup(code)
	if !ok || p.Color == "" {
		return "", false
	}
	return p.Color, true
}

// Thresholds returns the quality bands of a pollutant (nil when none).
func (c *Catalog) Thresholds(code string) Thresholds {
	p, _ := c.Lookup(code)
	return p.Thresholds
}

// Palette returns the fallback colors used when a series has no registered color.
func (c *Catalog) Palette() []string {
	return slices.Clone(c.palette)
}

// Pollutants lists all entries sorted by code.
func (c *Catalog) Pollutants() []Pollutant {
	out := make([]Pollutant, 0, len(c.pollutants))
	for _, p := range c.pollutants {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pollutant) int { return strings.Compare(a.Code, b.Code) })
	return out
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
