package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Create a commit from the staged index",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		hash, err := repo.Commit(commitMessage)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var (
	commitTreeMessage string
	commitTreeParent  string
)

var commitTreeCmd = &cobra.Command{
	Use:   "commit-tree <tree-hash>",
	Short: "Create and store a commit object directly from a tree hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		hash, err := repo.CommitTree(args[0], commitTreeMessage, commitTreeParent)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.MarkFlagRequired("message")

	commitTreeCmd.Flags().StringVarP(&commitTreeMessage, "message", "m", "", "commit message")
	commitTreeCmd.MarkFlagRequired("message")
	commitTreeCmd.Flags().StringVarP(&commitTreeParent, "parent", "p", "", "parent commit hash")
}
