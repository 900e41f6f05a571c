package cli

import (
	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Stage a file or directory tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.Add(args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Un-stage a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.Delete(args[0])
	},
}
