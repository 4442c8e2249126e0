package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"wmstriage/triage"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <report text>",
	Short: "Extract identifiers and classify a report without creating a ticket",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(classifyResult(text))
	},
}

type classification struct {
	triage.Report
	Scores map[triage.Category]int `json:"scores"`
}

func classifyResult(text string) classification {
	return classification{Report: triage.Analyze(text), Scores: triage.Scores(text)}
}
