package timeseries

import (
	"log/slog"
	"time"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
)

// Logger is the logging capability the pipeline needs. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LabelFunc formats a bucket or observation timestamp for display.
type LabelFunc func(ts int64) string

const (
	desktopLabelLayout = "02/01/2006 15:04"
	mobileLabelLayout  = "02/01 15:04"
)

type options struct {
	logger     Logger
	loc        *time.Location
	width      WidthClass
	catalog    *catalog.Catalog
	maxBuckets int
}

// Option configures the pipeline functions.
type Option func(*options)

// WithLogger injects a logger; the default discards everything.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLocation sets the zone record labels are rendered in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithWidthClass selects desktop or mobile label layouts.
func WithWidthClass(w WidthClass) Option {
	return func(o *options) {
		if w != "" {
			o.width = w
		}
	}
}

// WithCatalog sets the lookup table used for unit fallbacks.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		if c != nil {
			o.catalog = c
		}
	}
}

// WithMaxBuckets caps the number of gap-fill buckets per chart.
func WithMaxBuckets(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBuckets = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.New(slog.DiscardHandler),
		loc:        time.UTC,
		width:      WidthDesktop,
		maxBuckets: DefaultMaxBuckets,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) label() LabelFunc {
	return RecordLabel(o.loc, o.width)
}

func (o options) unitFor(key string) string {
	if o.catalog == nil {
		return ""
	}
	return o.catalog.Unit(key)
}

// RecordLabel returns the formatter used for UnifiedRecord labels.
func RecordLabel(loc *time.Location, width WidthClass) LabelFunc {
	if loc == nil {
		loc = time.UTC
	}
	layout := desktopLabelLayout
	if width == WidthMobile {
		layout = mobileLabelLayout
	}
	return func(ts int64) string {
		return FromMillis(ts).In(loc).Format(layout)
	}
}
