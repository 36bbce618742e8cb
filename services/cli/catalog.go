package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List known pollutants",
	Long:  `Displays the pollutant catalog: display name, unit and quality bands.`,
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-6s  %-8s  %-8s  %s\n", "Code", "Name", "Unit", "Bands")
	fmt.Fprintln(out, "----------------------------------------")
	for _, p := range cat.Pollutants() {
		labels := make([]string, 0, len(p.Thresholds))
		for _, b := range p.Thresholds {
			labels = append(labels, fmt.Sprintf("%s<%g", b.Label, b.Max))
		}
		bands := strings.Join(labels, ", ")
		if bands == "" {
			bands = "-"
		}
		fmt.Fprintf(out, "%-6s  %-8s  %-8s  %s\n", p.Code, p.Name, p.Unit, bands)
	}
	fmt.Fprintln(out, "----------------------------------------")
	fmt.Fprintf(out, "Palette: %s\n", strings.Join(cat.Palette(), " "))
	return nil
}
