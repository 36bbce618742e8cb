package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildPayload payloadFlags
	buildOutput  string
	buildPretty  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compute chart JSON from a payload",
	Long:  `Joins the payload series, fills gaps and writes the chart dataset as JSON.`,
	RunE:  runBuild,
}

func init() {
	buildPayload.register(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default is stdout)")
	buildCmd.Flags().BoolVar(&buildPretty, "pretty", false, "indent the JSON output")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	in, err := buildPayload.load(cmd.Context())
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

	var data []byte
	if buildPretty {
		data, err = json.MarshalIndent(chart, "", "  ")
	} else {
		data, err = json.Marshal(chart)
	}
	if err != nil {
		return fmt.Errorf("encoding chart: %w", err)
	}
	data = append(data, '\n')

	if buildOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(buildOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records and %d series to %s\n", len(chart.Records), len(chart.Series), buildOutput)
	return nil
}
