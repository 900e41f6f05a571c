package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/colors"
	"github.com/Balcus/flux/internal/repository"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staged, unstaged and untracked changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		status, err := repo.Status()
		if err != nil {
			return err
		}

		if status.Clean() {
			fmt.Println("nothing to commit, working tree clean")
			return nil
		}

		if len(status.IndexChanges) > 0 {
			fmt.Println("Changes staged for commit:")
			for path, kind := range status.IndexChanges {
				fmt.Printf("  %s\n", colorizeChange(path, kind))
			}
			fmt.Println()
		}

		if len(status.WorkspaceChanges) > 0 {
			fmt.Println("Changes not staged:")
			for path, kind := range status.WorkspaceChanges {
				fmt.Printf("  %s\n", colorizeChange(path, kind))
			}
			fmt.Println()
		}

		if len(status.Untracked) > 0 {
			fmt.Println("Untracked files:")
			for _, path := range status.Untracked {
				fmt.Printf("  %s\n", colors.Untracked(path))
			}
		}

		return nil
	},
}

func colorizeChange(path string, kind repository.ChangeKind) string {
	switch kind {
	case repository.Added:
		return colors.Added(path)
	case repository.Modified:
		return colors.Modified(path)
	case repository.Deleted:
		return colors.Deleted(path)
	default:
		return path
	}
}
