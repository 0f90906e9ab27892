package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/db"
)

var flushNoInput bool

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Delete every row from the database",
	Long: `Delete every row from the database, keeping the schema.

Asks for confirmation unless --noinput is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if !flushNoInput {
			ok, err := confirm(cmd, "This will IRREVERSIBLY delete all data. Type 'yes' to continue: ")
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("Flush cancelled.")
				return nil
			}
		}
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.Flush(cmd.Context(), conn); err != nil {
			return err
		}
		cmd.Println("Database flushed.")
		return nil
	},
}

func init() {
	flushCmd.Flags().BoolVar(&flushNoInput, "noinput", false, "do not prompt for confirmation")
	rootCmd.AddCommand(flushCmd)
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}
