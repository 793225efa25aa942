package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kushal-kothari/barrel-platform/changefeed"
)

func newChangesCommand(a *app) *cobra.Command {
	var storeName, dbName string
	var since uint64
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Print the change feed since a given sequence number",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := a.supervisor(storeName)
			if err != nil {
				return err
			}
			db, err := sup.Open(dbName, false)
			if err != nil {
				return err
			}
			batch, err := changefeed.Normal(db, since)
			if err != nil {
				return err
			}
			out, err := json.Marshal(batch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&storeName, "store", "default", "store to open the database from")
	cmd.Flags().StringVar(&dbName, "db", "", "database name")
	cmd.Flags().Uint64Var(&since, "since", 0, "resume point (exclusive if > 0, inclusive if 0)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
