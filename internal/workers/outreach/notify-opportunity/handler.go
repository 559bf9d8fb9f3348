// internal/workers/outreach/notify-opportunity/handler.go
package notifyopportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
)

const (
	TaskType = "notify-opportunity"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Publisher sends lead events. It reports false when the event was
// filtered out by configuration.
type Publisher interface {
	Publish(ctx context.Context, event models.LeadEvent) (string, bool, error)
}

type Handler struct {
	config    *Config
	publisher Publisher
	errors    *apperrors.ErrorHandler
	logger    Logger
	now       func() time.Time
}

func NewHandler(config *Config, publisher Publisher, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		publisher: publisher,
		errors:    apperrors.NewErrorHandler(l),
		logger:    l,
		now:       time.Now,
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
	if strings.TrimSpace(input.PlaceID) == "" {
		return nil, apperrors.NewValidationError("placeId is required")
	}
	score := strings.ToUpper(strings.TrimSpace(input.OpportunityScore))
	switch score {
	case models.OpportunityHigh, models.OpportunityMedium, models.OpportunityLow:
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid opportunityScore %q", input.OpportunityScore))
	}

	messageID, published, err := h.publisher.Publish(ctx, models.LeadEvent{
		PlaceID:          input.PlaceID,
		Name:             input.Name,
		OpportunityScore: score,
		AIAuditPitch:     input.AIAuditPitch,
		OccurredAt:       h.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if !published {
		h.logger.Info("lead event not published", map[string]interface{}{
			"placeId":          input.PlaceID,
			"opportunityScore": score,
		})
	}
	return &Output{Published: published, MessageID: messageID}, nil
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
