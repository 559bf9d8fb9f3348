// internal/services/leadindex/leadindex.go
package leadindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultIndex = "leads-analyzed"
	defaultLimit = 20
	maxLimit     = 100
)

// Mapping is the index mapping for analyzed leads.
const Mapping = `{
  "mappings": {
    "properties": {
      "placeId":          {"type": "keyword"},
      "name":             {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "address":          {"type": "text"},
      "category":         {"type": "keyword"},
      "rating":           {"type": "float"},
      "reviewCount":      {"type": "integer"},
      "location":         {"type": "geo_point"},
      "summary":          {"type": "text"},
      "opportunityScore": {"type": "keyword"},
      "keyGaps":          {"type": "text"},
      "aiAuditPitch":     {"type": "text", "index": false},
      "recommendedTools": {"type": "keyword"},
      "technicalDetails": {"type": "object", "enabled": false},
      "analyzedAt":       {"type": "date"}
    }
  }
}`

// SearchResult is one page of archived leads.
type SearchResult struct {
	Leads []models.AnalyzedLead `json:"leads"`
	Total int                   `json:"total"`
}

// Store archives analyzed leads in Elasticsearch.
type Store struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Store {
	if index == "" {
		index = DefaultIndex
	}
	return &Store{client: client, index: index, logger: log.With(map[string]interface{}{"service": "leadindex"})}
}

// Index writes lead keyed by its place id, replacing any earlier analysis.
func (s *Store) Index(ctx context.Context, lead models.AnalyzedLead) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: lead.PlaceID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	metrics.ObserveExternalCall("elasticsearch", err)
	if err != nil {
		return errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError(s.index, fmt.Errorf("index response: %s", res.Status()))
	}

	s.logger.Debug("lead archived", map[string]interface{}{"placeId": lead.PlaceID})
	return nil
}

// BuildSearchQuery builds the archive query. Empty text matches everything.
func BuildSearchQuery(text, opportunity string) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if text = strings.TrimSpace(text); text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"name^3", "summary", "keyGaps"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if opportunity = strings.ToUpper(strings.TrimSpace(opportunity)); opportunity != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"opportunityScore": opportunity},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"analyzedAt": map[string]interface{}{"order": "desc"}},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.AnalyzedLead `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a full-text query over archived leads, newest first.
func (s *Store) Search(ctx context.Context, text, opportunity string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	body, err := json.Marshal(BuildSearchQuery(text, opportunity))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}
	res, err := req.Do(ctx, s.client)
	metrics.ObserveExternalCall("elasticsearch", err)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return &SearchResult{Leads: []models.AnalyzedLead{}}, nil
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search response: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	out := &SearchResult{Leads: make([]models.AnalyzedLead, 0, len(parsed.Hits.Hits)), Total: parsed.Hits.Total.Value}
	for _, hit := range parsed.Hits.Hits {
		out.Leads = append(out.Leads, hit.Source)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) bool {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}
