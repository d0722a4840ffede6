package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/task_manager/internal/models"
)

// NewClient connects to Elasticsearch and checks that the cluster answers.
func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ESSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewESSearcher(client *elasticsearch.Client, index string) *ESSearcher {
	return &ESSearcher{client: client, index: index}
}

func (s *ESSearcher) Index(ctx context.Context, task models.Task) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(task); err != nil {
		return fmt.Errorf("index task %d: %w", task.ID, err)
	}

	res, err := s.client.Index(s.index, &buf,
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(docID(task.ID)),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index task %d: %w", task.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index task %d: %s", task.ID, res.Status())
	}
	return nil
}

// Remove deletes the task document. A document that is already gone is not
// an error.
func (s *ESSearcher) Remove(ctx context.Context, id uint) error {
	res, err := s.client.Delete(s.index, docID(id),
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("remove task %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove task %d: %s", id, res.Status())
	}
	return nil
}

func (s *ESSearcher) Search(ctx context.Context, ownerID uint, q string, offset, limit int) (int64, []models.Task, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"match": map[string]any{
						"title": map[string]any{
							"query":     q,
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"owner_id": ownerID},
				},
			},
		},
		"from": offset,
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Task `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	tasks := make([]models.Task, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		tasks = append(tasks, hit.Source)
	}
	return r.Hits.Total.Value, tasks, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
