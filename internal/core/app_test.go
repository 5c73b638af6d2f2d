package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xmlup/internal/config"
	"github.com/vrsandeep/xmlup/internal/jobs"
	"github.com/vrsandeep/xmlup/internal/models"
)

func TestNewWithConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Collector.Mode = config.ModeMock

	app, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Same(t, cfg, app.Config())
	assert.NotNil(t, app.WsHub())
	assert.NotNil(t, app.Coordinator())
	require.Len(t, app.JobManager().GetStatus(), 1)
	assert.Equal(t, jobs.InboxSweepJobID, app.JobManager().GetStatus()[0].ID)

	// Default rules apply when none are configured.
	app.Coordinator().StartBatch(app.Context(), []models.RawItem{
		{Name: "a.xml", Data: []byte(`<ESLBillingData/>`)},
	})
	require.NoError(t, app.Coordinator().Wait(context.Background()))
	snap := app.Coordinator().Snapshot()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "esl", snap.Records[0].Kind)
	assert.Equal(t, models.StatusSuccess, snap.Status["a.xml"])
}

func TestNewWithConfig_Errors(t *testing.T) {
	t.Run("unknown collector mode", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Collector.Mode = "carrier-pigeon"
		_, err := NewWithConfig(cfg)
		assert.ErrorContains(t, err, "unknown collector mode")
	})

	t.Run("invalid rule", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Classify.Rules = map[string]string{"broken": "//*["}
		_, err := NewWithConfig(cfg)
		assert.ErrorContains(t, err, "classify rules")
	})
}

func TestClose_CancelsContext(t *testing.T) {
	cfg := &config.Config{}
	cfg.Collector.Mode = config.ModeMock
	app, err := NewWithConfig(cfg)
	require.NoError(t, err)

	app.Close()
	assert.Error(t, app.Context().Err())
}
