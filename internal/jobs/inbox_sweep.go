package jobs

import (
	"fmt"
	"log"

	"github.com/vrsandeep/xmlup/internal/models"
	"github.com/vrsandeep/xmlup/internal/source"
)

const InboxSweepJobID = "inbox-sweep"

// RegisterAll registers every job the service knows.
func RegisterAll(jm *JobManager) {
	jm.Register(InboxSweepJobID, "Inbox Sweep", RunInboxSweep)
}

// RunInboxSweep submits everything in the inbox as one batch, moves the
// files to the processed folder and waits for the batch to finish.
func RunInboxSweep(ctx JobContext) {
	dir := ctx.Config().Inbox.Path
	if dir == "" {
		ctx.JobManager().Fail(InboxSweepJobID, "No inbox path configured.")
		return
	}

	inbox := source.NewInbox(dir)
	sweep, err := inbox.Load(ctx.Context())
	if err != nil {
		log.Printf("Inbox sweep failed: %v", err)
		ctx.JobManager().Fail(InboxSweepJobID, err.Error())
		return
	}
	if len(sweep.Items) == 0 {
		if err := inbox.MarkProcessed(sweep.Files); err != nil {
			log.Printf("Inbox sweep could not move files: %v", err)
		}
		ctx.JobManager().Report(InboxSweepJobID, "Inbox is empty.")
		return
	}

	coord := ctx.Coordinator()
	gen := coord.StartBatch(ctx.Context(), sweep.Items)
	if err := inbox.MarkProcessed(sweep.Files); err != nil {
		log.Printf("Inbox sweep could not move files: %v", err)
	}
	ctx.JobManager().Report(InboxSweepJobID, fmt.Sprintf("Batch %d started with %d document(s).", gen, len(sweep.Items)))

	if err := coord.Wait(ctx.Context()); err != nil {
		ctx.JobManager().Fail(InboxSweepJobID, err.Error())
		return
	}

	snap := coord.Snapshot()
	if snap.Generation != gen {
		ctx.JobManager().Report(InboxSweepJobID, fmt.Sprintf("Batch %d was replaced by batch %d.", gen, snap.Generation))
		return
	}
	var ok, failed int
	for _, st := range snap.Status {
		switch st {
		case models.StatusSuccess:
			ok++
		case models.StatusError:
			failed++
		}
	}
	log.Printf("Inbox batch %d finished: %d sent, %d failed", gen, ok, failed)
	if failed > 0 {
		ctx.JobManager().Fail(InboxSweepJobID, fmt.Sprintf("Batch %d: %d sent, %d failed.", gen, ok, failed))
	}
}
