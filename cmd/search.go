package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mes.GO/config"
	productionRepo "mes.GO/model/repository/production"
	"mes.GO/service/search"
)

var searchReindexCmd = &cobra.Command{
	Use:   "search:reindex",
	Short: "Rebuild the elasticsearch lot index from the database",
	Run: func(cmd *cobra.Command, args []string) {
		svc := search.GetSearchService()
		if !svc.Enabled() {
			fmt.Println("Elasticsearch not configured (set ELASTICSEARCH_HOST); nothing to do.")
			return
		}
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		n, err := svc.ReindexLots(context.Background(), productionRepo.NewLotRepository(db))
		if err != nil {
			fmt.Printf("Reindex failed after %d lots: %v\n", n, err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d lots.\n", n)
	},
}

func init() {
	rootCmd.AddCommand(searchReindexCmd)
}
