package cli

import (
	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		return repo.Set(args[0], args[1])
	},
}
