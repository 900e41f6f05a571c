package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Branch management commands",
}

var branchShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List branches, current prefixed with (*)",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		out, err := repo.ShowBranches()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var branchNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a branch and switch to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.NewBranch(args[0])
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.DeleteBranch(args[0])
	},
}

var branchSwitchForce bool

var branchSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.SwitchBranch(args[0], branchSwitchForce)
	},
}

func init() {
	branchSwitchCmd.Flags().BoolVar(&branchSwitchForce, "force", false, "switch even with a non-empty index")
}
