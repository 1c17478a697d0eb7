package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/atelier"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of atelier",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "atelier version %s\n", strings.TrimSpace(atelier.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
