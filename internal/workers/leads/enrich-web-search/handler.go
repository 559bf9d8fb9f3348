// internal/workers/leads/enrich-web-search/handler.go
package enrichwebsearch

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
)

const (
	TaskType = "enrich-web-search"
)

var whitespace = regexp.MustCompile(`\s+`)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ReviewSearcher looks up third-party coverage of a business. It returns an
// empty list on failure.
type ReviewSearcher interface {
	SearchBusinessReviews(ctx context.Context, businessName, location string) []models.SearchResult
}

type Handler struct {
	config   *Config
	searcher ReviewSearcher
	logger   Logger
}

func NewHandler(config *Config, searcher ReviewSearcher, log Logger) *Handler {
	return &Handler{
		config:   config,
		searcher: searcher,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Handle never fails the job: web results are supplementary, so bad input or
// a failed search completes with an empty list.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.logger.Warn("invalid input, returning empty results", map[string]interface{}{
			"error": err.Error(),
		})
		h.completeJob(client, job, &Output{SearchResults: []models.SearchResult{}})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, _ := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	name := clean(input.BusinessName)
	if name == "" {
		h.logger.Warn("business name missing, skipping web search", nil)
		return &Output{SearchResults: []models.SearchResult{}}, nil
	}

	results := h.searcher.SearchBusinessReviews(ctx, name, clean(input.Address))
	if results == nil {
		results = []models.SearchResult{}
	}

	h.logger.Info("web search completed", map[string]interface{}{
		"businessName": name,
		"resultCount":  len(results),
	})

	return &Output{SearchResults: results}, nil
}

func clean(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, sendErr := cmd.Send(context.Background()); sendErr != nil {
		h.logger.Error("Failed to send complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
