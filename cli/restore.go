package cli

import (
	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var restoreFSCmd = &cobra.Command{
	Use:   "restore-fs",
	Short: "Rebuild the work tree from the current HEAD commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.RestoreFS()
	},
}
