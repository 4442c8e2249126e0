package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wmstriage/www"
)

var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wmstriage",
	Short: "Warehouse discrepancy triage service",
	Long: `wmstriage takes free-text reports about missing ASNs, POs and pallets
or mismatched quantities, checks them against the warehouse records and
works each one to a resolution.

Examples:
  wmstriage serve --config wmstriage.yaml  # Run the HTTP service
  wmstriage seed --asns 10                 # Load sample records
  wmstriage classify "ASN 01234 missing"   # Triage one report offline`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "wmstriage", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "wmstriage.yaml", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	www.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
