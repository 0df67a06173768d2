package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/andrensetiawan/form-service/cmd.Version=...".
var (
	Version   = "dev"
	BuildTime = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Version:   %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "BuildTime: %s\n", BuildTime)
	},
}
