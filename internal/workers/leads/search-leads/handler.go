// internal/workers/leads/search-leads/handler.go
package searchleads

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
)

const (
	TaskType = "search-leads"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LeadSearcher is implemented by the leads service.
type LeadSearcher interface {
	Search(ctx context.Context, params models.SearchParams) (*models.LeadsResponse, error)
}

type Handler struct {
	config   *Config
	searcher LeadSearcher
	errors   *apperrors.ErrorHandler
	logger   Logger
}

func NewHandler(config *Config, searcher LeadSearcher, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:   config,
		searcher: searcher,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidSearchParamsError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.searcher.Search(ctx, models.SearchParams{
		Industry: input.Industry,
		City:     input.City,
		Filters:  input.Filters,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("lead search completed", map[string]interface{}{
		"industry": input.Industry,
		"city":     input.City,
		"total":    resp.Total,
		"cached":   resp.Cached,
	})

	return &Output{Leads: resp.Leads, Total: resp.Total, Cached: resp.Cached}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
