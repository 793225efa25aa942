package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kushal-kothari/barrel-platform/docmodel"
)

func newPutCommand(a *app) *cobra.Command {
	var storeName, dbName, body string
	cmd := &cobra.Command{
		Use:   "put <doc-id>",
		Short: "Write a document, creating its database if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := a.supervisor(storeName)
			if err != nil {
				return err
			}
			db, err := sup.Open(dbName, true)
			if err != nil {
				return err
			}
			doc, err := docmodel.ParseDoc([]byte(body))
			if err != nil {
				return err
			}
			res, err := db.Put(context.Background(), args[0], doc)
			if err != nil {
				return err
			}
			out, _ := json.Marshal(map[string]string{"id": string(res.DocID), "rev": string(res.Rev)})
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&storeName, "store", "default", "store to open the database from")
	cmd.Flags().StringVar(&dbName, "db", "", "database name")
	cmd.Flags().StringVar(&body, "body", "{}", "document body as JSON")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
