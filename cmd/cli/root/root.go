package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "deeds",
	Short:         "Good Deeds CLI",
	Long:          "Command line client for the Good Deeds board: browse help requests, publish your own and comment.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
