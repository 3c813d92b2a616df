package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func versionString() string {
	v := version
	if v == "" {
		v = "dev"
	}
	s := "awsfootprint " + v
	if commit != "" {
		s += fmt.Sprintf(" (commit %s", commit)
		if date != "" {
			s += ", built " + date
		}
		s += ")"
	}
	return s
}
