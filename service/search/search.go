// Package search indexes production lots into Elasticsearch and answers
// free-text lookups. When no cluster is configured the service degrades to a
// database LIKE scan, so traceability lookups keep working on a bare install.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"

	productionEntity "mes.GO/model/entity/production"
	productionRepo "mes.GO/model/repository/production"
)

var (
	searchServiceInstance *SearchService
	searchServiceOnce     sync.Once
)

// GetSearchService returns the singleton SearchService.
func GetSearchService() *SearchService {
	searchServiceOnce.Do(func() {
		searchServiceInstance = NewSearchService()
	})
	return searchServiceInstance
}

type SearchService struct {
	client *elasticsearch.Client
	prefix string
}

func NewSearchService() *SearchService {
	host := os.Getenv("ELASTICSEARCH_HOST")
	prefix := os.Getenv("ELASTICSEARCH_INDEX_PREFIX")
	if prefix == "" {
		prefix = "mes"
	}
	if host == "" {
		// No cluster configured; the DB fallback serves lookups.
		return &SearchService{prefix: prefix}
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{host}})
	if err != nil {
		return &SearchService{prefix: prefix}
	}
	return &SearchService{client: client, prefix: prefix}
}

func (s *SearchService) Enabled() bool { return s.client != nil }

func (s *SearchService) lotIndex() string { return s.prefix + "_production_lot" }

// LotDoc is the indexed shape of a production lot.
type LotDoc struct {
	LotID       uint    `json:"lot_id"`
	LotNumber   string  `json:"lot_number"`
	ProductID   uint    `json:"product_id"`
	ProcessStep string  `json:"process_step"`
	Status      string  `json:"status"`
	PlannedQty  float64 `json:"planned_qty"`
}

// IndexLot upserts one lot document; a no-op without a cluster.
func (s *SearchService) IndexLot(ctx context.Context, lot *productionEntity.ProductionLot) error {
	if s.client == nil {
		return nil
	}
	doc := LotDoc{
		LotID:       lot.LotID,
		LotNumber:   lot.LotNumber,
		ProductID:   lot.ProductID,
		ProcessStep: lot.ProcessStep,
		Status:      lot.Status,
		PlannedQty:  lot.PlannedQty,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := s.client.Index(
		s.lotIndex(),
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(fmt.Sprintf("%d", lot.LotID)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.String())
	}
	return nil
}

// SearchLots matches lot numbers and process steps. With a cluster it runs a
// multi_match; without one it falls back to a LIKE scan against the lot
// repository.
func (s *SearchService) SearchLots(ctx context.Context, repo *productionRepo.LotRepository, query string, limit int) ([]productionEntity.ProductionLot, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if s.client == nil {
		return repo.SearchByNumber(ctx, query, limit)
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"lot_number^3", "process_step", "status"},
			},
		},
	}
	bodyBytes, _ := json.Marshal(body)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.lotIndex()),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		// Cluster down; the database still has the truth.
		return repo.SearchByNumber(ctx, query, limit)
	}
	defer res.Body.Close()
	if res.IsError() {
		return repo.SearchByNumber(ctx, query, limit)
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source LotDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, err
	}

	out := make([]productionEntity.ProductionLot, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		lot, err := repo.ByID(ctx, hit.Source.LotID)
		if err != nil {
			continue
		}
		out = append(out, *lot)
	}
	return out, nil
}

// ReindexLots pushes every lot into the index, for the nightly cron and the
// CLI reindex command.
func (s *SearchService) ReindexLots(ctx context.Context, repo *productionRepo.LotRepository) (int, error) {
	if s.client == nil {
		return 0, nil
	}
	lots, err := repo.All(ctx)
	if err != nil {
		return 0, err
	}
	indexed := 0
	for i := range lots {
		if err := s.IndexLot(ctx, &lots[i]); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}
