package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kushal-kothari/barrel-platform/revid"
)

func newGetCommand(a *app) *cobra.Command {
	var storeName, dbName, rev string
	var history bool
	cmd := &cobra.Command{
		Use:   "get <doc-id>",
		Short: "Read a document at its current or a specific revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := a.supervisor(storeName)
			if err != nil {
				return err
			}
			db, err := sup.Open(dbName, false)
			if err != nil {
				return err
			}
			doc, err := db.GetRev(args[0], revid.ID(rev), history, 1000, nil)
			if err != nil {
				return err
			}
			out, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&storeName, "store", "default", "store to open the database from")
	cmd.Flags().StringVar(&dbName, "db", "", "database name")
	cmd.Flags().StringVar(&rev, "rev", "", "specific revision to fetch (default: current winner)")
	cmd.Flags().BoolVar(&history, "history", false, "attach _revisions ancestor history")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
