package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wmstriage/config"
	"wmstriage/sampledata"
	"wmstriage/store"
)

var (
	seedOpts = sampledata.DefaultOptions()
	seedSeed int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the warehouse records with generated sample data",
	Long: `Clear the ASN and PO tables, generate consistent sample records and add
one scenario per issue category. The scenarios and a set of sample reports
are printed as JSON.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.ASNs, "asns", seedOpts.ASNs, "number of ASNs")
	seedCmd.Flags().IntVar(&seedOpts.POsPerASN, "pos-per-asn", seedOpts.POsPerASN, "POs per ASN")
	seedCmd.Flags().IntVar(&seedOpts.PalletsPerPO, "pallets-per-po", seedOpts.PalletsPerPO, "pallets per PO")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 picks one from the clock)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if seedSeed == 0 {
		seedSeed = time.Now().UnixNano()
	}
	gen := sampledata.New(db, seedSeed)
	sum, err := gen.Generate(seedOpts)
	if err != nil {
		return err
	}
	scenarios, err := gen.CreateScenarios()
	if err != nil {
		return err
	}
	db.AppendAudit("records", "sample", "generated", "",
		fmt.Sprintf("%d asns, %d pos", len(sum.ASNs), len(sum.POs)), "cli")

	counts, err := db.CountRecords()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"seed":           seedSeed,
		"records":        counts,
		"test_scenarios": scenarios,
		"sample_issues":  sampledata.SampleIssues(scenarios),
	})
}
