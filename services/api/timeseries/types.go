package timeseries

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidMode  = errors.New("invalid mode")
	ErrInvalidStep  = errors.New("invalid time step")
	ErrInvalidWidth = errors.New("invalid display width")
)

// Mode selects how series keys are interpreted: pollutant codes or station ids.
type Mode string

const (
	ModeNormal     Mode = "normal"
	ModeComparison Mode = "comparison"
)

// ParseMode validates a mode string. The empty string means normal.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeNormal:
		return ModeNormal, nil
	case ModeComparison:
		return ModeComparison, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// StepKind is the time granularity the upstream data was aggregated at.
type StepKind string

const (
	StepNone        StepKind = "none"
	StepQuarterHour StepKind = "quarterHour"
	StepHour        StepKind = "hour"
	StepDay         StepKind = "day"
)

// ParseStep validates a step string. The empty string means none.
func ParseStep(s string) (StepKind, error) {
	switch StepKind(s) {
	case "", StepNone:
		return StepNone, nil
	case StepQuarterHour, StepHour, StepDay:
		return StepKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStep, s)
}

// Aggregated reports whether gap detection applies to this step.
func (s StepKind) Aggregated() bool {
	return s == StepQuarterHour || s == StepHour || s == StepDay
}

// IntervalMillis returns the bucket width in milliseconds, 0 for StepNone.
func (s StepKind) IntervalMillis() int64 {
	switch s {
	case StepQuarterHour:
		return int64(15 * time.Minute / time.Millisecond)
	case StepHour:
		return int64(time.Hour / time.Millisecond)
	case StepDay:
		return int64(24 * time.Hour / time.Millisecond)
	default:
		return 0
	}
}

// WidthClass picks between the desktop and the narrower mobile label formats.
type WidthClass string

const (
	WidthDesktop WidthClass = "desktop"
	WidthMobile  WidthClass = "mobile"
)

// ParseWidth validates a display width. The empty string means desktop.
func ParseWidth(s string) (WidthClass, error) {
	switch WidthClass(s) {
	case "", WidthDesktop:
		return WidthDesktop, nil
	case WidthMobile:
		return WidthMobile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWidth, s)
}

// Axis identifies the value axis a series is bound to.
type Axis string

const (
	AxisLeft  Axis = "left"
	AxisRight Axis = "right"
)

// VariantKind names one of the sub-series a key can carry.
type VariantKind string

const (
	VariantPrimary   VariantKind = "primary"
	VariantCorrected VariantKind = "corrected"
	VariantRaw       VariantKind = "raw"
	VariantModeling  VariantKind = "modeling"
)

// suffix is the flat data-key suffix used at the serialization boundary.
func (v VariantKind) suffix() string {
	switch v {
	case VariantCorrected:
		return "_corrected"
	case VariantRaw:
		return "_raw"
	case VariantModeling:
		return "_modeling"
	default:
		return ""
	}
}

// DataKey returns the flat field name for a series key and variant, e.g. "pm10_raw".
func DataKey(seriesKey string, v VariantKind) string {
	return seriesKey + v.suffix()
}

var variantOrder = []VariantKind{VariantPrimary, VariantCorrected, VariantRaw, VariantModeling}
