package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tonnetz"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tonnetz",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tonnetz version %s\n", strings.TrimSpace(tonnetz.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
