// internal/workers/leads/analyze-lead/handler.go
package analyzelead

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
)

const (
	TaskType = "analyze-lead"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type LeadAnalyzer interface {
	Analyze(ctx context.Context, placeID string) (*models.AnalysisResponse, error)
}

type Handler struct {
	config   *Config
	analyzer LeadAnalyzer
	errors   *apperrors.ErrorHandler
	logger   Logger
}

func NewHandler(config *Config, analyzer LeadAnalyzer, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:   config,
		analyzer: analyzer,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.analyzer.Analyze(ctx, input.PlaceID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("lead analyzed", map[string]interface{}{
		"placeId":          input.PlaceID,
		"opportunityScore": resp.Analysis.OpportunityScore,
		"cached":           resp.Cached,
	})

	return &Output{
		Analysis:         resp.Analysis,
		TechnicalDetails: resp.TechnicalDetails,
		Cached:           resp.Cached,
	}, nil
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
