// Package jobs holds the scheduled maintenance tasks. Each job registers
// itself through cron.Register from init(); importing the package is enough
// to arm them.
package jobs

import (
	"context"
	"log"
	"time"

	"mes.GO/config"
	"mes.GO/core/cache"
	"mes.GO/cron"
	productionRepo "mes.GO/model/repository/production"
	"mes.GO/service/search"
)

func init() {
	// Nightly full reindex keeps the lot index honest after bulk imports.
	cron.Register("search:reindex", "0 3 * * *", func(args ...string) {
		svc := search.GetSearchService()
		if !svc.Enabled() {
			return
		}
		db, err := config.NewDB()
		if err != nil {
			log.Printf("search:reindex: db: %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := svc.ReindexLots(ctx, productionRepo.NewLotRepository(db))
		if err != nil {
			log.Printf("search:reindex: %v", err)
			return
		}
		log.Printf("search:reindex: %d lots indexed", n)
	})

	cron.Register("cache:prune", "@every 10m", func(args ...string) {
		if n := cache.GetInstance().PruneExpired(); n > 0 {
			log.Printf("cache:prune: %d entries dropped", n)
		}
	})
}
