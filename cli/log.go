package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print commits from HEAD backward",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		out, err := repo.Log()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
