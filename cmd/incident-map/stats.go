package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-year incident and victim counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		incidents, _, err := loadData(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-6s %10s %10s\n", "year", "incidents", "victims")

		totalIncidents, totalVictims := 0, 0
		for _, year := range incidents.Years() {
			victims := 0
			visible := incidents.ByYear(year)
			for _, in := range visible {
				victims += in.Victims
			}
			fmt.Fprintf(out, "%-6d %10d %10d\n", year, len(visible), victims)
			totalIncidents += len(visible)
			totalVictims += victims
		}

		fmt.Fprintf(out, "%-6s %10d %10d\n", "total", totalIncidents, totalVictims)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
