// internal/workers/leads/score-opportunity/handler_test.go
package scoreopportunity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
	"leadgenius/internal/services/gemini"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(map[string]interface{}) Logger              { return l }

// ==========================
// Test Helper Functions
// ==========================

const validReply = `{
  "digitalPresenceSummary": "Basic site without automation.",
  "opportunityScore": "HIGH",
  "keyGaps": ["No chatbot"],
  "aiAuditPitch": "You are missing after-hours leads.",
  "recommendedTools": ["Chatbot"]
}`

type scriptedGenerator struct {
	reply string
	err   error
	got   string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ bool) (string, error) {
	g.got = prompt
	return g.reply, g.err
}

type countingUsage struct {
	services []string
	err      error
}

func (u *countingUsage) Track(_ context.Context, service string) error {
	u.services = append(u.services, service)
	return u.err
}

func createTestHandler(t *testing.T, gen gemini.Generator, tracker UsageTracker) *Handler {
	svc := gemini.NewWithGenerator(gen, gemini.Config{MaxRetries: 1, RetryDelay: time.Millisecond}, logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: 2 * time.Second}, svc, tracker, &TestLogger{t: t})
}

func testInput(t *testing.T) *Input {
	var input Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Joe's Plumbing",
		"industry": "plumber",
		"city": "Austin, TX",
		"rating": 4.1,
		"reviewCount": 37,
		"websiteHtml": null,
		"hasChatbot": false
	}`), &input))
	return &input
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	gen := &scriptedGenerator{reply: validReply}
	tracker := &countingUsage{}
	handler := createTestHandler(t, gen, tracker)

	output, err := handler.Execute(context.Background(), testInput(t))

	require.NoError(t, err)
	assert.Equal(t, models.OpportunityHigh, output.Analysis.OpportunityScore)
	assert.Equal(t, []string{"Chatbot"}, output.Analysis.RecommendedTools)
	assert.Equal(t, []string{"gemini"}, tracker.services)
	assert.Contains(t, gen.got, "Joe's Plumbing")
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		gen         *scriptedGenerator
		input       func(t *testing.T) *Input
		wantCode    string
		wantRetries int
	}{
		{
			name:     "missing business name",
			gen:      &scriptedGenerator{reply: validReply},
			input:    func(*testing.T) *Input { return &Input{} },
			wantCode: "INVALID_INPUT",
		},
		{
			name:        "llm timeout retried once",
			gen:         &scriptedGenerator{err: context.DeadlineExceeded},
			input:       testInput,
			wantCode:    "LLM_TIMEOUT",
			wantRetries: 1,
		},
		{
			name:        "unparseable reply",
			gen:         &scriptedGenerator{reply: "not json"},
			input:       testInput,
			wantCode:    "LLM_ANALYSIS_FAILED",
			wantRetries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.gen, nil)

			_, err := handler.Execute(context.Background(), tt.input(t))

			require.Error(t, err)
			bpmn := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
		})
	}
}

func TestHandler_Execute_UsageLimit(t *testing.T) {
	gen := &scriptedGenerator{reply: validReply}
	handler := createTestHandler(t, gen, &countingUsage{err: apperrors.NewRateLimitError("Daily gemini limit reached")})

	_, err := handler.Execute(context.Background(), testInput(t))

	require.Error(t, err)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", apperrors.ConvertToBPMNError(apperrors.Normalize(err)).Code)
	assert.Empty(t, gen.got)
}
