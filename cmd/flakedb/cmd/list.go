package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List stored paths",
	Long:  "List stored block paths, optionally filtered by prefix (e.g. \"ledger1/main/commit/\").",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	store, err := newStore(cmd.Context())
	if err != nil {
		return err
	}

	count := 0
	for path, err := range store.List(cmd.Context(), prefix) {
		if err != nil {
			return err
		}
		fmt.Println(path)
		count++
	}

	if count == 0 {
		fmt.Println("(no entries)")
	}
	return nil
}
