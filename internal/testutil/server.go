// Shared setup for tests that need a wired application or API server.

package testutil

import (
	"testing"

	"github.com/vrsandeep/xmlup/internal/api"
	"github.com/vrsandeep/xmlup/internal/config"
	"github.com/vrsandeep/xmlup/internal/core"
)

// TestConfig is a configuration that never touches the network: the mock
// collector is used and the inbox points at a fresh temp dir.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Port: 0}
	cfg.Collector.Mode = config.ModeMock
	cfg.Inbox.Path = t.TempDir()
	return cfg
}

// SetupTestApp wires a core.App for cfg, or TestConfig when cfg is nil.
func SetupTestApp(t *testing.T, cfg *config.Config) *core.App {
	t.Helper()
	if cfg == nil {
		cfg = TestConfig(t)
	}
	app, err := core.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to set up app: %v", err)
	}
	app.Version = "test"
	t.Cleanup(app.Close)
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T, cfg *config.Config) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t, cfg)
	return api.NewServer(app), app
}
