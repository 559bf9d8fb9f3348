// internal/workers/leads/score-opportunity/handler.go
package scoreopportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
	"leadgenius/internal/services/usage"
)

const (
	TaskType = "score-opportunity"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Scorer interface {
	AnalyzeBusinessOpportunity(ctx context.Context, bc models.BusinessContext) (*models.LeadAnalysis, error)
}

type UsageTracker interface {
	Track(ctx context.Context, service string) error
}

type Handler struct {
	config *Config
	scorer Scorer
	usage  UsageTracker
	errors *apperrors.ErrorHandler
	logger Logger
}

// NewHandler builds the handler. tracker may be nil.
func NewHandler(config *Config, scorer Scorer, tracker UsageTracker, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config: config,
		scorer: scorer,
		usage:  tracker,
		errors: apperrors.NewErrorHandler(l),
		logger: l,
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
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("Business name is required")
	}

	bc := input.BusinessContext
	if bc.RecentReviews == nil {
		bc.RecentReviews = []string{}
	}
	if bc.UXGaps == nil {
		bc.UXGaps = []string{}
	}

	if h.usage != nil {
		if err := h.usage.Track(ctx, usage.Gemini); err != nil {
			return nil, err
		}
	}

	analysis, err := h.scorer.AnalyzeBusinessOpportunity(ctx, bc)
	if err != nil {
		return nil, err
	}

	h.logger.Info("opportunity scored", map[string]interface{}{
		"businessName":     bc.Name,
		"opportunityScore": analysis.OpportunityScore,
	})

	return &Output{Analysis: *analysis}, nil
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

// failJob retries LLM_TIMEOUT once; see errors.GetRetryCount.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
