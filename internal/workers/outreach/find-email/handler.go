// internal/workers/outreach/find-email/handler.go
package findemail

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
)

const (
	TaskType = "find-email"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type EmailFinder interface {
	FindEmail(ctx context.Context, domain, companyName string) (*models.EmailResult, error)
}

type Handler struct {
	config *Config
	finder EmailFinder
	errors *apperrors.ErrorHandler
	logger Logger
}

func NewHandler(config *Config, finder EmailFinder, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config: config,
		finder: finder,
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

// execute reports a missing address as found=false rather than an error so
// the process can branch on it.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Domain) == "" {
		return nil, apperrors.NewValidationError("domain is required")
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, apperrors.NewValidationError("companyName is required")
	}

	result, err := h.finder.FindEmail(ctx, input.Domain, input.CompanyName)
	if err != nil {
		return nil, err
	}
	if result == nil {
		h.logger.Info("no email found", map[string]interface{}{"domain": input.Domain})
		return &Output{Found: false}, nil
	}

	h.logger.Info("email found", map[string]interface{}{
		"domain":     input.Domain,
		"source":     result.Source,
		"confidence": result.Confidence,
	})
	return &Output{
		Found:      true,
		Email:      result.Email,
		Source:     result.Source,
		Confidence: result.Confidence,
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
