package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bobinette/datanet"
)

func init() {
	IndexCommand.AddCommand(&IndexAllCommand)
	RootCmd.AddCommand(&IndexCommand)
}

var IndexCommand = cobra.Command{
	Use:   "index",
	Short: "Manage the free-text index",
	Long:  "Manage the free-text index",
}

var IndexAllCommand = cobra.Command{
	Use:   "all",
	Short: "Rebuild the index",
	Long:  "Rebuild the free-text index from the document store",
	Run: func(cmd *cobra.Command, args []string) {
		if datasetIndex == nil {
			logger.Fatal("no index configured")
		}

		ctx := context.Background()
		documents, err := documentStore.Find(ctx, datanet.Document{})
		if err != nil {
			logger.Fatal("error listing documents:", err)
		}

		for _, doc := range documents {
			uri := doc.String("uri")
			if err := datasetIndex.Index(uri, doc.String("name"), doc.String("readme")); err != nil {
				logger.Fatal("error indexing document:", err)
			}
			logger.Printf("%s indexed", uri)
		}
	},
}
