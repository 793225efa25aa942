package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kushal-kothari/barrel-platform/revid"
)

func newRevsDiffCommand(a *app) *cobra.Command {
	var storeName, dbName, revList string
	cmd := &cobra.Command{
		Use:   "revs-diff <doc-id>",
		Short: "Report which of a comma-separated revision list is missing",
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
			var ids []revid.ID
			for _, s := range strings.Split(revList, ",") {
				if s != "" {
					ids = append(ids, revid.ID(s))
				}
			}
			missing, ancestors, err := db.RevsDiff(args[0], ids)
			if err != nil {
				return err
			}
			out, err := json.Marshal(map[string][]revid.ID{
				"missing":            missing,
				"possible_ancestors": ancestors,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&storeName, "store", "default", "store to open the database from")
	cmd.Flags().StringVar(&dbName, "db", "", "database name")
	cmd.Flags().StringVar(&revList, "revs", "", "comma-separated candidate revision ids")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
