package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	flakedb "github.com/BobConanDev/db-sub001"
)

var commitBranch string

var commitCmd = &cobra.Command{
	Use:   "write-commit <ledger-alias> [file]",
	Short: "Write commit data for a ledger branch",
	Long:  "Canonicalize and hash JSON commit data, persist it content-addressed, and print the resulting address. Reads stdin when no file is given.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runWriteCommit,
}

func init() {
	commitCmd.Flags().StringVar(&commitBranch, "branch", "main", "ledger branch")
	rootCmd.AddCommand(commitCmd)
}

func runWriteCommit(cmd *cobra.Command, args []string) (err error) {
	var in io.Reader = os.Stdin
	if len(args) > 1 {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("commit data is not valid JSON: %w", err)
	}

	store, err := newStore(cmd.Context())
	if err != nil {
		return err
	}
	conn, err := flakedb.Connect(flakedb.WithStore(store), flakedb.WithLogger(newLogger()))
	if err != nil {
		return err
	}
	defer conn.Close()

	rec, err := conn.WriteCommit(cmd.Context(), flakedb.Ledger{Alias: args[0], Branch: commitBranch}, data)
	if err != nil {
		return err
	}

	fmt.Println(rec.Address)
	return nil
}
