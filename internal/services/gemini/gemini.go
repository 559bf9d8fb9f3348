// internal/services/gemini/gemini.go
package gemini

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/common/retry"
	"leadgenius/internal/common/validation"
	"leadgenius/internal/models"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash-exp"

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// Generator sends a prompt to the model and returns the text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string, jsonReply bool) (string, error)
}

type genaiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string, jsonReply bool) (string, error) {
	var cfg *genai.GenerateContentConfig
	if jsonReply {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(g.temperature),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

type Service struct {
	generator Generator
	config    Config
	logger    logger.Logger
}

func applyDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return cfg
}

// New creates the Gemini client. Without an API key the service stays
// constructible but every call fails.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Service, error) {
	cfg = applyDefaults(cfg)
	s := &Service{config: cfg, logger: log.With(map[string]interface{}{"service": "gemini"})}
	if cfg.APIKey == "" {
		s.logger.Warn("Gemini API key not configured", nil)
		return s, nil
	}

	clientCfg := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	s.generator = &genaiGenerator{client: client, model: cfg.Model, temperature: cfg.Temperature}
	return s, nil
}

// NewWithGenerator builds the service around an existing generator.
func NewWithGenerator(gen Generator, cfg Config, log logger.Logger) *Service {
	return &Service{
		generator: gen,
		config:    applyDefaults(cfg),
		logger:    log.With(map[string]interface{}{"service": "gemini"}),
	}
}

// AnalyzeBusinessOpportunity asks the model to score a lead and validates the reply.
func (s *Service) AnalyzeBusinessOpportunity(ctx context.Context, bc models.BusinessContext) (*models.LeadAnalysis, error) {
	if s.generator == nil {
		return nil, errors.NewLLMAnalysisFailedError("Analysis failed", stderrors.New("gemini not configured"))
	}

	s.logger.Info("analyzing business", map[string]interface{}{"name": bc.Name})
	prompt := BuildAnalysisPrompt(bc)

	reply, err := retry.DoValue(ctx, retry.Config{
		MaxAttempts: s.config.MaxRetries,
		Delay:       s.config.RetryDelay,
		Backoff:     true,
		Logger:      s.logger,
		Operation:   "generateContent",
	}, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		return s.generator.Generate(callCtx, prompt, true)
	})
	metrics.ObserveExternalCall("gemini", err)
	if err != nil {
		s.logger.Error("gemini analysis error", map[string]interface{}{"name": bc.Name, "error": err.Error()})
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewLLMTimeoutError()
		}
		return nil, errors.NewLLMAnalysisFailedError("Analysis failed", err)
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		s.logger.Error("invalid gemini reply", map[string]interface{}{"name": bc.Name, "error": err.Error()})
		return nil, err
	}
	return analysis, nil
}

// ParseAnalysis decodes and validates a model reply.
func ParseAnalysis(reply string) (*models.LeadAnalysis, error) {
	raw := []byte(strings.TrimSpace(reply))
	if !json.Valid(raw) {
		return nil, errors.NewLLMAnalysisFailedError("Failed to parse AI response", stderrors.New("reply is not valid JSON"))
	}

	result, err := validation.LeadAnalysisSchema.ValidateJSON(raw)
	if err != nil {
		return nil, errors.NewLLMAnalysisFailedError("Failed to parse AI response", err)
	}
	if !result.Valid {
		return nil, errors.NewLLMAnalysisFailedError("Analysis failed", result)
	}

	var analysis models.LeadAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, errors.NewLLMAnalysisFailedError("Failed to parse AI response", err)
	}
	if analysis.RecommendedTools == nil {
		analysis.RecommendedTools = []string{}
	}
	if analysis.KeyGaps == nil {
		analysis.KeyGaps = []string{}
	}
	return &analysis, nil
}

// HealthCheck asks the model for a trivial reply.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.generator == nil {
		return false
	}
	reply, err := s.generator.Generate(ctx, `Say "OK" if you are working.`, false)
	if err != nil {
		s.logger.Error("gemini health check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return strings.Contains(reply, "OK")
}
