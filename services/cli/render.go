package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/render"
)

var (
	renderPayload payloadFlags
	renderOutput  string
	renderTitle   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a payload as an HTML chart preview",
	Long:  `Builds the chart and writes a standalone HTML page drawing it with ECharts.`,
	RunE:  runRender,
}

func init() {
	renderPayload.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output HTML file")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "page title")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderOutput == "" {
		return errors.New("--output is required")
	}
	in, err := renderPayload.load(cmd.Context())
	if err != nil {
		return err
	}
	pipeline, err := newPipeline()
	if err != nil {
		return err
	}
	chart, err := pipeline.Build(in)
	if err != nil {
		return fmt.Errorf("building chart: %w", err)
	}

	f, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := render.Chart(f, chart, render.Options{Title: renderTitle}); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote preview to %s\n", renderOutput)
	return f.Close()
}
