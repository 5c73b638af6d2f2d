package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vrsandeep/xmlup/internal/classify"
	"github.com/vrsandeep/xmlup/internal/config"
	"github.com/vrsandeep/xmlup/internal/jobs"
	"github.com/vrsandeep/xmlup/internal/transfer"
	"github.com/vrsandeep/xmlup/internal/transport/httpupload"
	"github.com/vrsandeep/xmlup/internal/transport/mocktransport"
	"github.com/vrsandeep/xmlup/internal/websocket"
)

// App holds the core components of the application that are shared
// between the HTTP server, jobs and the watcher.
type App struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      *config.Config
	hub         *websocket.Hub
	coordinator *transfer.Coordinator
	jobManager  *jobs.JobManager
	Version     string
}

// New loads the configuration and sets up a new App instance.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires the application for cfg. The websocket hub is started;
// the job scheduler and watcher are left to the caller.
func NewWithConfig(cfg *config.Config) (*App, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	rules := cfg.Classify.Rules
	if len(rules) == 0 {
		rules = classify.DefaultRules
	}
	classifier, err := classify.New(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classify rules: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		hub:         hub,
		coordinator: transfer.NewCoordinator(transport, hub, classifier),
		Version:     "dev",
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)

	log.Println("Core application setup complete.")
	return app, nil
}

func newTransport(cfg *config.Config) (transfer.Transport, error) {
	switch cfg.Collector.Mode {
	case config.ModeHTTP, "":
		timeout := time.Duration(cfg.Collector.TimeoutSeconds) * time.Second
		log.Printf("Uploading to collector at %s", cfg.Collector.URL)
		return httpupload.New(cfg.Collector.URL, timeout), nil
	case config.ModeMock:
		log.Println("Using the mock collector; nothing leaves this process.")
		t := mocktransport.New()
		t.StepDelay = time.Duration(cfg.Collector.MockStepMillis) * time.Millisecond
		return t, nil
	default:
		return nil, fmt.Errorf("unknown collector mode %q", cfg.Collector.Mode)
	}
}

func (a *App) Context() context.Context           { return a.ctx }
func (a *App) Config() *config.Config             { return a.config }
func (a *App) WsHub() *websocket.Hub              { return a.hub }
func (a *App) Coordinator() *transfer.Coordinator { return a.coordinator }
func (a *App) JobManager() *jobs.JobManager       { return a.jobManager }

// Close cancels in-flight transfers.
func (a *App) Close() {
	a.cancel()
}
