package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// errNoRemote is returned by push/clone/auth: Flux's core defines the
// remote.Client boundary but ships no transport. A real deployment wires a
// concrete client (gRPC, HTTP/2, ...) in front of these commands.
var errNoRemote = fmt.Errorf("no remote client configured: push/clone/auth require a remote.Client implementation")

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the repository archive to a remote (not configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errNoRemote
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone <name>",
	Short: "Clone a repository from a remote (not configured)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return errNoRemote
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Exchange credentials for an access token with a remote (not configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errNoRemote
	},
}
