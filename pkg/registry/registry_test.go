package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadgenius/internal/common/errors"
	analyzelead "leadgenius/internal/workers/leads/analyze-lead"
	enrichwebsearch "leadgenius/internal/workers/leads/enrich-web-search"
	scoreopportunity "leadgenius/internal/workers/leads/score-opportunity"
	searchleads "leadgenius/internal/workers/leads/search-leads"
	findemail "leadgenius/internal/workers/outreach/find-email"
	notifyopportunity "leadgenius/internal/workers/outreach/notify-opportunity"
)

func TestDefault_CoversEveryWorker(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{
		searchleads.TaskType,
		analyzelead.TaskType,
		enrichwebsearch.TaskType,
		scoreopportunity.TaskType,
		findemail.TaskType,
		notifyopportunity.TaskType,
	}, reg.TaskTypes())
}

func TestDefault_ErrorCodesAreKnown(t *testing.T) {
	known := map[string]bool{}
	for _, code := range apperrors.BPMNErrorMapping {
		known[code] = true
	}

	for _, a := range Default().Activities {
		for _, code := range a.ErrorCodes {
			assert.True(t, known[code], "%s: unknown error code %s", a.TaskType, code)
		}
	}
}

func TestFind(t *testing.T) {
	reg := Default()

	a, ok := reg.Find("analyze-lead")
	require.True(t, ok)
	assert.Equal(t, "Analyze Lead", a.DisplayName)

	_, ok = reg.Find("validate-subscription")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	data, err := json.Marshal(Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 6)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = LoadRegistry(path)
	assert.Error(t, err)
}
