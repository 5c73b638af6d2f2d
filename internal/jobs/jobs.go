package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// StartJobs starts the background job scheduler. The returned scheduler is
// already running; stop it on shutdown.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startInboxSweepJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startInboxSweepJob(s *gocron.Scheduler, app JobContext) {
	cfg := app.Config()
	interval := cfg.Inbox.SweepInterval
	if cfg.Inbox.Path == "" || interval == 0 {
		log.Println("Inbox sweep interval is 0 or no inbox configured, scheduled sweep is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", InboxSweepJobID, interval)

	// Start the first run one interval from now; startup already has the
	// watcher or a manual trigger for immediate work.
	_, err := s.Every(interval).Minutes().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", InboxSweepJobID)
		// Going through the manager keeps scheduled and manual runs from overlapping.
		if err := app.JobManager().RunJob(InboxSweepJobID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", InboxSweepJobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", InboxSweepJobID, err)
	}
}
