package commands

import (
	"log/slog"

	"github.com/ppiankov/awsfootprint/internal/config"
	"github.com/ppiankov/awsfootprint/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	profile string
	version string
	commit  string
	date    string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "awsfootprint",
	Short: "awsfootprint: what your AWS bill is made of",
	Long: `awsfootprint reads per-service costs from Cost Explorer for a billing period
and, for every billed service it knows, inventories the resources behind the
charge: instance counts, vCPU and memory, storage sizes, queues, topics and more.

The result is a single report that shows both what each service cost and what
that cost represents physically.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS profile name")
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
