package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
)

// UnitGroup is the set of series keys sharing one unit.
type UnitGroup struct {
	Unit string   `json:"unit"`
	Axis Axis     `json:"axis,omitempty"`
	Keys []string `json:"keys"`
}

// UnitGrouping binds unit groups to value axes. Only two axes exist: groups
// beyond the second stay unbound and their keys are listed in Unbound.
type UnitGrouping struct {
	Groups  []UnitGroup     `json:"groups"`
	Axes    map[string]Axis `json:"axes"`
	Unbound []string        `json:"unbound,omitempty"`

	keyAxis map[string]Axis
}

// AxisFor returns the axis a series key is bound to.
func (g UnitGrouping) AxisFor(key string) (Axis, bool) {
	axis, ok := g.keyAxis[key]
	return axis, ok
}

// GroupUnits partitions keys by their resolved unit. The unit of a key is the
// first one found in the records, else fallback(key).
func GroupUnits(records []Record, keys []string, fallback func(string) string) UnitGrouping {
	grouping := UnitGrouping{
		Groups:  []UnitGroup{},
		Axes:    map[string]Axis{},
		keyAxis: map[string]Axis{},
	}
	index := make(map[string]int)
	for _, key := range uniqueKeys(keys) {
		unit := resolveUnit(records, key, fallback)
		i, ok := index[unit]
		if !ok {
			i = len(grouping.Groups)
			index[unit] = i
			group := UnitGroup{Unit: unit}
			switch i {
			case 0:
				group.Axis = AxisLeft
			case 1:
				group.Axis = AxisRight
			}
			if group.Axis != "" {
				grouping.Axes[unit] = group.Axis
			}
			grouping.Groups = append(grouping.Groups, group)
		}
		grouping.Groups[i].Keys = append(grouping.Groups[i].Keys, key)
		if axis := grouping.Groups[i].Axis; axis != "" {
			grouping.keyAxis[key] = axis
		} else {
			grouping.Unbound = append(grouping.Unbound, key)
		}
	}
	return grouping
}

func resolveUnit(records []Record, key string, fallback func(string) string) string {
	for _, rec := range records {
		if v, ok := rec.Variants[key]; ok && v.Unit != "" {
			return v.Unit
		}
	}
	if fallback != nil {
		return fallback(key)
	}
	return ""
}

// Granularity is the coarseness of time-axis labels.
type Granularity string

const (
	GranularityHour    Granularity = "hour"
	GranularityDayHour Granularity = "dayHour"
	GranularityDay     Granularity = "day"
	GranularityMonth   Granularity = "month"
	GranularityYear    Granularity = "year"
)

// AxisFormat describes how time-axis ticks are labelled. Layouts use Go
// reference-time syntax.
type AxisFormat struct {
	Granularity Granularity `json:"granularity"`
	Desktop     string      `json:"desktop"`
	Mobile      string      `json:"mobile"`
	Width       WidthClass  `json:"width"`
}

var axisLayouts = map[Granularity][2]string{
	GranularityHour:    {"15:04", "15h"},
	GranularityDayHour: {"02/01 15:04", "02/01 15h"},
	GranularityDay:     {"02/01/2006", "02/01"},
	GranularityMonth:   {"January 2006", "01/06"},
	GranularityYear:    {"2006", "2006"},
}

// AxisFormatFor picks the label granularity from the dataset time span.
func AxisFormatFor(minTs, maxTs int64, width WidthClass) AxisFormat {
	if minTs > maxTs {
		minTs, maxTs = maxTs, minTs
	}
	span := uint64(maxTs) - uint64(minTs)

	const hour = uint64(time.Hour / time.Millisecond)
	var g Granularity
	switch {
	case span <= 36*hour:
		g = GranularityHour
	case span <= 8*24*hour:
		g = GranularityDayHour
	case span <= 93*24*hour:
		g = GranularityDay
	case span <= 2*365*24*hour:
		g = GranularityMonth
	default:
		g = GranularityYear
	}
	layouts := axisLayouts[g]
	if width == "" {
		width = WidthDesktop
	}
	return AxisFormat{Granularity: g, Desktop: layouts[0], Mobile: layouts[1], Width: width}
}

// Layout returns the layout matching the width class.
func (f AxisFormat) Layout() string {
	if f.Width == WidthMobile {
		return f.Mobile
	}
	return f.Desktop
}

// Format renders one tick.
func (f AxisFormat) Format(ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return FromMillis(ts).In(loc).Format(f.Layout())
}

// CommonThresholds returns the quality bands shared by every pollutant, or nil
// when they differ or none are registered.
func CommonThresholds(cat *catalog.Catalog, pollutants []string) catalog.Thresholds {
	codes := uniqueKeys(pollutants)
	if cat == nil || len(codes) == 0 {
		return nil
	}
	common := cat.Thresholds(codes[0])
	if len(common) == 0 {
		return nil
	}
	for _, code := range codes[1:] {
		if !common.Equal(cat.Thresholds(code)) {
			return nil
		}
	}
	return common
}

// Summary describes the non-null values of one plotted series.
type Summary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Summarize computes a summary, nil for an empty series.
func Summarize(values []float64) *Summary {
	if len(values) == 0 {
		return nil
	}
	data := stats.Float64Data(values)
	lo, err := data.Min()
	if err != nil {
		return nil
	}
	hi, err := data.Max()
	if err != nil {
		return nil
	}
	mean, err := data.Mean()
	if err != nil {
		return nil
	}
	return &Summary{Count: len(values), Min: lo, Max: hi, Mean: mean}
}

// SeriesDescriptor tells the rendering layer how to draw one line.
type SeriesDescriptor struct {
	DataKey           string      `json:"dataKey"`
	SeriesKey         string      `json:"seriesKey"`
	Variant           VariantKind `json:"variant"`
	Name              string      `json:"name"`
	Color             string      `json:"color"`
	StrokeWidth       float64     `json:"strokeWidth"`
	DashPattern       string      `json:"dashPattern,omitempty"`
	AxisID            Axis        `json:"axisId"`
	Unit              string      `json:"unit,omitempty"`
	ConnectAcrossGaps bool        `json:"connectAcrossGaps"`
	Summary           *Summary    `json:"summary,omitempty"`
}

// DescriptorInput gathers what BuildDescriptors reads.
type DescriptorInput struct {
	Records      []Record
	Keys         []string
	Mode         Mode
	Step         StepKind
	Catalog      *catalog.Catalog
	Grouping     UnitGrouping
	StationNames map[string]string
}

var variantStyles = map[VariantKind]struct {
	suffix string
	dash   string
	width  float64
}{
	VariantPrimary:   {"", "", 2},
	VariantCorrected: {" (corrected)", "", 2},
	VariantRaw:       {" (raw)", "5 5", 1.5},
	VariantModeling:  {" (model)", "10 6", 1.5},
}

// BuildDescriptors returns one descriptor per key and variant with data.
// Keys whose unit group has no axis are left out. In comparison mode each
// station gets one solid line plus a dashed raw line when it reports both
// corrected and raw values.
func BuildDescriptors(in DescriptorInput, logger Logger) []SeriesDescriptor {
	if logger == nil {
		logger = newOptions(nil).logger
	}
	cat := in.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	palette := cat.Palette()

	out := make([]SeriesDescriptor, 0)
	for idx, key := range uniqueKeys(in.Keys) {
		var present Field
		for _, rec := range in.Records {
			if v, ok := rec.Variants[key]; ok {
				present |= v.Present()
			}
		}
		if present == 0 {
			logger.Debug("no data for series", "series", key)
			continue
		}
		axis, ok := in.Grouping.AxisFor(key)
		if !ok {
			logger.Warn("series unit has no free axis, not plotted", "series", key)
			continue
		}

		name, color := seriesIdentity(in, cat, key)
		if color == "" {
			color = palette[idx%len(palette)]
		}
		unit := resolveUnit(in.Records, key, nil)

		for _, kind := range variantOrder {
			if !present.Has(kind) || redundantVariant(in.Mode, kind, present) {
				continue
			}
			style := variantStyles[kind]
			dataKey := DataKey(key, kind)
			d := SeriesDescriptor{
				DataKey:           dataKey,
				SeriesKey:         key,
				Variant:           kind,
				Name:              name + style.suffix,
				Color:             color,
				StrokeWidth:       style.width,
				DashPattern:       style.dash,
				AxisID:            axis,
				Unit:              unit,
				ConnectAcrossGaps: in.Step == StepNone || in.Step == "",
				Summary:           Summarize(seriesValues(in.Records, dataKey)),
			}
			if kind == VariantModeling {
				d.Color = Lighten(color, 0.4)
			}
			out = append(out, d)
		}
	}
	return out
}

// redundantVariant reports variants that would duplicate another line. In
// comparison mode the bare key already carries corrected, else raw, so only
// a raw companion next to a corrected value is drawn.
func redundantVariant(mode Mode, kind VariantKind, present Field) bool {
	if mode != ModeComparison {
		return false
	}
	switch kind {
	case VariantCorrected:
		return true
	case VariantRaw:
		return !present.Has(VariantCorrected)
	}
	return false
}

func seriesIdentity(in DescriptorInput, cat *catalog.Catalog, key string) (string, string) {
	if in.Mode == ModeComparison {
		if name, ok := in.StationNames[key]; ok && name != "" {
			return name, ""
		}
		return key, ""
	}
	color, _ := cat.Color(key)
	return cat.Name(key), color
}

func seriesValues(records []Record, dataKey string) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, _ := rec.Value(dataKey); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// Range is a value-axis extent.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AxisRanges merges descriptor summaries per axis.
func AxisRanges(series []SeriesDescriptor) map[Axis]Range {
	out := make(map[Axis]Range)
	for _, d := range series {
		if d.Summary == nil {
			continue
		}
		r, ok := out[d.AxisID]
		if !ok {
			out[d.AxisID] = Range{Min: d.Summary.Min, Max: d.Summary.Max}
			continue
		}
		r.Min = min(r.Min, d.Summary.Min)
		r.Max = max(r.Max, d.Summary.Max)
		out[d.AxisID] = r
	}
	return out
}

// Lighten mixes a #rgb or #rrggbb color toward white by amount in [0,1].
// Unparseable colors are returned unchanged.
func Lighten(color string, amount float64) string {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color
	}
	amount = max(0, min(1, amount))
	mix := func(c uint64) uint64 {
		return c + uint64(float64(255-c)*amount+0.5)
	}
	r := mix(rgb >> 16 & 0xff)
	g := mix(rgb >> 8 & 0xff)
	b := mix(rgb & 0xff)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
