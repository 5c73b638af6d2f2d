package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/xmlup/internal/api"
	"github.com/vrsandeep/xmlup/internal/core"
	"github.com/vrsandeep/xmlup/internal/jobs"
	"github.com/vrsandeep/xmlup/internal/source"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	scheduler := jobs.StartJobs(app)
	defer scheduler.Stop()

	cfg := app.Config()
	if cfg.Inbox.Path != "" && cfg.Inbox.Watch {
		if err := os.MkdirAll(cfg.Inbox.Path, 0755); err != nil {
			log.Fatalf("Could not create inbox %s: %v", cfg.Inbox.Path, err)
		}
		watcher := source.NewWatcher(cfg.Inbox.Path, func() {
			if err := app.JobManager().RunJob(jobs.InboxSweepJobID, app); err != nil {
				log.Printf("Inbox sweep could not start: %v", err)
			}
		})
		if err := watcher.Start(); err != nil {
			log.Printf("Warning: inbox watcher failed to start: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	server := api.NewServer(app)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting.")
}
