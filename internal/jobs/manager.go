package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/vrsandeep/xmlup/internal/config"
	"github.com/vrsandeep/xmlup/internal/models"
	"github.com/vrsandeep/xmlup/internal/transfer"
	"github.com/vrsandeep/xmlup/internal/websocket"
)

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct will implement this interface.
type JobContext interface {
	// Context lives as long as the process; batches started by jobs use it.
	Context() context.Context
	Config() *config.Config
	WsHub() *websocket.Hub
	Coordinator() *transfer.Coordinator
	JobManager() *JobManager
}

type jobTask func(ctx JobContext)

const startedMessage = "Job started..."

type JobStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// JobManager runs registered jobs, at most one at a time.
type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*JobStatus
	running bool
	appCtx  JobContext
}

func NewManager(appCtx JobContext) *JobManager {
	return &JobManager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*JobStatus),
		appCtx: appCtx,
	}
}

func (jm *JobManager) Register(id, name string, task jobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	jm.status[id] = &JobStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts the job in the background. It fails if the job is unknown or
// any job is already running.
func (jm *JobManager) RunJob(id string, ctx JobContext) error {
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return fmt.Errorf("a job is already running")
	}
	task, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return fmt.Errorf("job '%s' not found", id)
	}

	jm.running = true
	status := jm.status[id]
	status.Status = "running"
	status.StartTime = time.Now()
	status.EndTime = time.Time{}
	status.Message = startedMessage
	jm.publish(status, false)
	jm.mu.Unlock()

	log.Printf("Starting job: %s", id)
	go func() {
		defer func() {
			r := recover()

			jm.mu.Lock()
			if r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
			}
			status.EndTime = time.Now()
			if status.Status == "running" {
				status.Status = "success"
				if status.Message == startedMessage {
					status.Message = "Job completed successfully."
				}
			}
			jm.running = false
			jm.publish(status, true)
			jm.mu.Unlock()
			log.Printf("Finished job: %s", id)
		}()

		task(ctx)
	}()
	return nil
}

// Fail marks a running job as failed with message. Tasks call it instead of
// returning an error.
func (jm *JobManager) Fail(id, message string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if s, ok := jm.status[id]; ok && s.Status == "running" {
		s.Status = "failed"
		s.Message = message
	}
}

// Report updates the message of a running job.
func (jm *JobManager) Report(id, message string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if s, ok := jm.status[id]; ok && s.Status == "running" {
		s.Message = message
		jm.publish(s, false)
	}
}

// GetStatus returns copies of all job states ordered by ID.
func (jm *JobManager) GetStatus() []*JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]*JobStatus, 0, len(jm.status))
	for _, s := range jm.status {
		c := *s
		statuses = append(statuses, &c)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// publish must be called with jm.mu held.
func (jm *JobManager) publish(s *JobStatus, done bool) {
	if jm.appCtx == nil {
		return
	}
	hub := jm.appCtx.WsHub()
	if hub == nil {
		return
	}
	c := *s
	hub.Publish(models.ProgressUpdate{Stream: models.StreamJob, Data: c, Message: c.Message, Done: done})
}
