package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		repo, err := repository.Init(path, forceInit)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized repository %s in %s\n", repo.Name, repo.FluxDir)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "remove an existing .flux directory before initialising")
}
