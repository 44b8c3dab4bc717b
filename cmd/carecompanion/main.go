// Command carecompanion runs the CareCompanion assistant backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "carecompanion",
	Short:        "CareCompanion assistant backend",
	Long:         "CareCompanion — a conversational healthcare assistant backend with tool-calling access to provider, health-topic, drug-label, trial, and coverage data.",
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("carecompanion version %s\n", version))

	rootCmd.AddCommand(newServeCmd())
}
