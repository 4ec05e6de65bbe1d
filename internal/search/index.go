package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/property_listing/internal/models"
)

// Index keeps a searchable copy of listings. The store stays the source of truth.
type Index interface {
	Put(ctx context.Context, p *models.Property) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) ([]uuid.UUID, int64, error)
}

type document struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Owner       string  `json:"owner"`
	CreatedAt   string  `json:"createdAt"`
}

const mapping = `{
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "location":    {"type": "text"},
      "price":       {"type": "double"},
      "owner":       {"type": "keyword"},
      "createdAt":   {"type": "date"}
    }
  }
}`

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{es: es, index: index}
}

func (i *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: exists %s: %w", i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.es.Indices.Create(i.index,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("es: create %s: %w", i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es: create %s: %s: %s", i.index, res.Status(), body)
	}
	return nil
}

func (i *ESIndex) Put(ctx context.Context, p *models.Property) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(document{
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Price:       p.Price,
		Owner:       p.OwnerID.String(),
		CreatedAt:   p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}); err != nil {
		return fmt.Errorf("es: encode: %w", err)
	}

	res, err := i.es.Index(i.index, &buf,
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("es: index %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index %s: %s", p.ID, res.Status())
	}
	return nil
}

func (i *ESIndex) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := i.es.Delete(i.index, id.String(), i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete %s: %s", id, res.Status())
	}
	return nil
}

func Query(q string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "description", "location"},
				"fuzziness": "AUTO",
			},
		},
		"sort":             []any{"_score", map[string]any{"createdAt": "desc"}},
		"_source":          false,
		"track_total_hits": true,
		"from":             from,
		"size":             size,
	}
}

func (i *ESIndex) Search(ctx context.Context, q string, from, size int) ([]uuid.UUID, int64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Query(q, from, size)); err != nil {
		return nil, 0, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, 0, fmt.Errorf("es: search: %s: %s", res.Status(), body)
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) ([]uuid.UUID, int64, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("es: decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, out.Hits.Total.Value, nil
}
