// Package cli wires Flux's Repository operations to a cobra command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const fluxVersion = "0.1.0"

var version bool

var rootCmd = &cobra.Command{
	Use:   "flux",
	Short: "Flux is a content-addressed version control engine",
	Long:  "Flux tracks a work tree as a graph of content-addressed blob, tree and commit objects.",
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("flux version %s\n", fluxVersion)
			os.Exit(0)
		}
		cmd.Help()
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&version, "version", false, "print the flux version")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(hashObjectCmd)
	rootCmd.AddCommand(catFileCmd)
	rootCmd.AddCommand(commitTreeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(restoreFSCmd)

	rootCmd.AddCommand(branchCmd)
	branchCmd.AddCommand(branchShowCmd, branchNewCmd, branchDeleteCmd, branchSwitchCmd)

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(authCmd)
}
