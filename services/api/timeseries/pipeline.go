package timeseries

import (
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
)

// Input is the chart request payload shared by the HTTP API and the CLI.
type Input struct {
	Data            map[string][]Observation `json:"data"`
	Modeling        map[string][]Observation `json:"modeling,omitempty"`
	SelectedKeys    []string                 `json:"selectedKeys"`
	Mode            Mode                     `json:"mode,omitempty"`
	Pollutant       string                   `json:"pollutant,omitempty"`
	TimeStep        StepKind                 `json:"timeStep,omitempty"`
	DisplayWidth    WidthClass               `json:"displayWidth,omitempty"`
	DualCalibration bool                     `json:"dualCalibration,omitempty"`
	StationNames    map[string]string        `json:"stationNames,omitempty"`
}

// Chart is the complete, render-ready dataset.
type Chart struct {
	Records    []Record           `json:"data"`
	Series     []SeriesDescriptor `json:"series"`
	Units      UnitGrouping       `json:"units"`
	AxisFormat AxisFormat         `json:"axisFormat"`
	Thresholds catalog.Thresholds `json:"thresholds"`
	AxisRanges map[Axis]Range     `json:"axisRanges"`
	Mode       Mode               `json:"mode"`
	Step       StepKind           `json:"timeStep"`
}

// Pipeline runs join, gap filling and metadata derivation with a fixed
// catalog and label settings. It holds no per-request state.
type Pipeline struct {
	catalog *catalog.Catalog
	opts    []Option
	base    options
}

// NewPipeline returns a pipeline; a nil catalog selects the embedded default.
func NewPipeline(cat *catalog.Catalog, opts ...Option) *Pipeline {
	if cat == nil {
		cat = catalog.Default()
	}
	opts = append([]Option{WithCatalog(cat)}, opts...)
	return &Pipeline{catalog: cat, opts: opts, base: newOptions(opts)}
}

// Catalog exposes the lookup table in use.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Build validates the enum fields of in and computes the chart. Malformed
// observations never fail the build; only invalid enum values do.
func (p *Pipeline) Build(in Input) (*Chart, error) {
	mode, err := ParseMode(string(in.Mode))
	if err != nil {
		return nil, err
	}
	step, err := ParseStep(string(in.TimeStep))
	if err != nil {
		return nil, err
	}
	width := p.base.width
	if in.DisplayWidth != "" {
		if width, err = ParseWidth(string(in.DisplayWidth)); err != nil {
			return nil, err
		}
	}

	opts := append(p.opts[:len(p.opts):len(p.opts)], WithWidthClass(width))
	o := newOptions(opts)

	records, err := Join(JoinInput{
		Series:          in.Data,
		Modeling:        in.Modeling,
		SelectedKeys:    in.SelectedKeys,
		Mode:            mode,
		Pollutant:       in.Pollutant,
		DualCalibration: in.DualCalibration,
		Step:            step,
	}, opts...)
	if err != nil {
		return nil, err
	}
	filled, err := FillGapsLimit(records, step, o.label(), o.maxBuckets)
	if err != nil {
		o.logger.Warn("gap filling skipped", "step", step, "error", err)
	} else if len(filled) != len(records) {
		o.logger.Debug("inserted gap placeholders",
			"step", step,
			"placeholders", len(filled)-len(records),
		)
	}

	keys := uniqueKeys(in.SelectedKeys)
	unitFallback := p.catalog.Unit
	thresholdCodes := keys
	if mode == ModeComparison {
		unitFallback = func(string) string { return p.catalog.Unit(in.Pollutant) }
		thresholdCodes = []string{in.Pollutant}
	}
	grouping := GroupUnits(filled, keys, unitFallback)
	if len(grouping.Unbound) > 0 {
		o.logger.Warn("more than two units selected, extra series are not plotted",
			"unbound", grouping.Unbound,
		)
	}

	series := BuildDescriptors(DescriptorInput{
		Records:      filled,
		Keys:         keys,
		Mode:         mode,
		Step:         step,
		Catalog:      p.catalog,
		Grouping:     grouping,
		StationNames: in.StationNames,
	}, o.logger)

	var minTs, maxTs int64
	if len(filled) > 0 {
		minTs = filled[0].TimestampValue
		maxTs = filled[len(filled)-1].TimestampValue
	}

	return &Chart{
		Records:    filled,
		Series:     series,
		Units:      grouping,
		AxisFormat: AxisFormatFor(minTs, maxTs, width),
		Thresholds: CommonThresholds(p.catalog, thresholdCodes),
		AxisRanges: AxisRanges(series),
		Mode:       mode,
		Step:       step,
	}, nil
}
