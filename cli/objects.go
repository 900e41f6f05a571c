package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Balcus/flux/internal/repository"
)

var hashObjectWrite bool

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object <path>",
	Short: "Compute (and optionally store) the hash of a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		hash, err := repo.HashObject(args[0], hashObjectWrite)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var catFileHash string

var catFileCmd = &cobra.Command{
	Use:   "cat-file",
	Short: "Print an object's textual form",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repository.Open(".")
		if err != nil {
			return err
		}
		out, err := repo.Cat(catFileHash)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	hashObjectCmd.Flags().BoolVarP(&hashObjectWrite, "write", "w", false, "persist the computed object(s)")

	catFileCmd.Flags().StringVarP(&catFileHash, "print", "p", "", "hash of the object to print")
	catFileCmd.MarkFlagRequired("print")
}
