package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/catalog"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/config"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/upstream"
)

const fetchTimeout = 30 * time.Second

var (
	catalogPath string
	tzName      string
	logLevel    string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aqchart",
	Short: "Build air-quality chart datasets from observation payloads",
	Long: `aqchart joins per-pollutant or per-station observation series into one
chart-ready timeline, fills gaps for aggregated steps and derives axis and
series metadata. Payloads are read from a file or fetched from a URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := config.ParseLogLevel(logLevel)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "pollutant catalog YAML (default is the embedded catalog)")
	rootCmd.PersistentFlags().StringVar(&tzName, "tz", "UTC", "IANA zone used for record labels")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// loadCatalog returns the catalog selected by --catalog.
func loadCatalog() (*catalog.Catalog, error) {
	if catalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(catalogPath)
}

// newPipeline builds a pipeline from the persistent flags.
func newPipeline() (*timeseries.Pipeline, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz: %w", err)
	}
	opts := []timeseries.Option{timeseries.WithLocation(loc)}
	if logger != nil {
		opts = append(opts, timeseries.WithLogger(logger))
	}
	return timeseries.NewPipeline(cat, opts...), nil
}

// payloadFlags select where a chart payload comes from and optional
// overrides of its enum fields.
type payloadFlags struct {
	input string
	url   string
	step  string
	width string
}

func (f *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "payload JSON file")
	cmd.Flags().StringVar(&f.url, "url", "", "payload URL")
	cmd.Flags().StringVar(&f.step, "step", "", "override timeStep (none, quarterHour, hour, day)")
	cmd.Flags().StringVar(&f.width, "width", "", "override displayWidth (desktop, mobile)")
}

// load reads the payload and applies overrides.
func (f *payloadFlags) load(ctx context.Context) (timeseries.Input, error) {
	var (
		in  timeseries.Input
		err error
	)
	switch {
	case f.input != "" && f.url != "":
		return in, errors.New("--input and --url are mutually exclusive")
	case f.input != "":
		in, err = readInput(f.input)
	case f.url != "":
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		in, err = upstream.FetchInput(ctx, &http.Client{Timeout: fetchTimeout}, f.url)
	default:
		return in, errors.New("one of --input or --url is required")
	}
	if err != nil {
		return in, err
	}
	if f.step != "" {
		in.TimeStep = timeseries.StepKind(f.step)
	}
	if f.width != "" {
		in.DisplayWidth = timeseries.WidthClass(f.width)
	}
	return in, nil
}

func readInput(path string) (timeseries.Input, error) {
	var in timeseries.Input
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("reading payload file: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parsing payload file: %w", err)
	}
	return in, nil
}
