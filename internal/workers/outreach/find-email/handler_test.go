// internal/workers/outreach/find-email/handler_test.go
package findemail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/services/emailfinder"
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

type fakeFetcher struct {
	pages map[string]string
	calls int
}

func (f *fakeFetcher) FetchWebsite(_ context.Context, url string) (string, bool) {
	f.calls++
	html, ok := f.pages[url]
	return html, ok
}

func createTestHandler(t *testing.T, fetcher *fakeFetcher) *Handler {
	finder := emailfinder.New(fetcher, logger.NewTestLogger(t))
	return NewHandler(&Config{Timeout: 5 * time.Second}, finder, &TestLogger{t: t})
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_Found(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://joesplumbing.com/contact": `<a href="mailto:office@joesplumbing.com">Email</a>`,
	}}
	handler := createTestHandler(t, fetcher)

	out, err := handler.Execute(context.Background(), &Input{
		Domain:      "https://www.joesplumbing.com",
		CompanyName: "Joe's Plumbing",
	})

	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "office@joesplumbing.com", out.Email)
	assert.Equal(t, 90, out.Confidence)
	assert.NotEmpty(t, out.Source)
}

func TestExecute_NotFound(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{}}
	handler := createTestHandler(t, fetcher)

	out, err := handler.Execute(context.Background(), &Input{Domain: "joes.com", CompanyName: "Joe's"})

	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Empty(t, out.Email)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{name: "missing domain", input: Input{CompanyName: "Joe's"}},
		{name: "blank domain", input: Input{Domain: "   ", CompanyName: "Joe's"}},
		{name: "missing company", input: Input{Domain: "joes.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			handler := createTestHandler(t, fetcher)

			_, err := handler.Execute(context.Background(), &tt.input)

			require.Error(t, err)
			stdErr := apperrors.Normalize(err)
			assert.Equal(t, apperrors.ErrCodeValidation, stdErr.Code)
			assert.Equal(t, "INVALID_INPUT", apperrors.ConvertToBPMNError(stdErr).Code)
			assert.Zero(t, fetcher.calls)
		})
	}
}
