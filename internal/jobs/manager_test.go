package jobs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vrsandeep/xmlup/internal/config"
	"github.com/vrsandeep/xmlup/internal/jobs"
	"github.com/vrsandeep/xmlup/internal/transfer"
	"github.com/vrsandeep/xmlup/internal/websocket"
)

type fakeJobContext struct {
	cfg    *config.Config
	ws     *websocket.Hub
	coord  *transfer.Coordinator
	jobMgr *jobs.JobManager
}

func (f *fakeJobContext) Context() context.Context           { return context.Background() }
func (f *fakeJobContext) Config() *config.Config             { return f.cfg }
func (f *fakeJobContext) WsHub() *websocket.Hub              { return f.ws }
func (f *fakeJobContext) Coordinator() *transfer.Coordinator { return f.coord }
func (f *fakeJobContext) JobManager() *jobs.JobManager       { return f.jobMgr }

func newFakeContext() *fakeJobContext {
	ctx := &fakeJobContext{cfg: &config.Config{}, ws: websocket.NewHub()}
	ctx.jobMgr = jobs.NewManager(ctx)
	return ctx
}

func waitForStatus(t *testing.T, mgr *jobs.JobManager, id, want string) *jobs.JobStatus {
	t.Helper()
	var last *jobs.JobStatus
	assert.Eventually(t, func() bool {
		for _, s := range mgr.GetStatus() {
			if s.ID == id {
				last = s
				return s.Status == want
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return last
}

func TestManager_NewManager(t *testing.T) {
	mgr := newFakeContext().jobMgr
	assert.NotNil(t, mgr)
	assert.Empty(t, mgr.GetStatus())
}

func TestManager_RegisterAndGetStatus(t *testing.T) {
	mgr := newFakeContext().jobMgr
	mgr.Register("jobB", "Job B", func(ctx jobs.JobContext) {})
	mgr.Register("jobA", "Job A", func(ctx jobs.JobContext) {})

	statuses := mgr.GetStatus()
	assert.Len(t, statuses, 2)
	assert.Equal(t, "jobA", statuses[0].ID)
	assert.Equal(t, "Job A", statuses[0].Name)
	assert.Equal(t, "idle", statuses[0].Status)
	assert.Equal(t, "jobB", statuses[1].ID)
}

func TestManager_RunJob_SuccessAndStatus(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	called := make(chan struct{})
	mgr.Register("jobX", "Job X", func(ctx jobs.JobContext) { close(called) })

	assert.NoError(t, mgr.RunJob("jobX", ctx))
	<-called
	s := waitForStatus(t, mgr, "jobX", "success")
	assert.Equal(t, "Job completed successfully.", s.Message)
	assert.False(t, s.EndTime.IsZero())
}

func TestManager_RunJob_KeepsReportedMessage(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	mgr.Register("jobR", "Job R", func(ctx jobs.JobContext) {
		ctx.JobManager().Report("jobR", "Did 3 things.")
	})

	assert.NoError(t, mgr.RunJob("jobR", ctx))
	s := waitForStatus(t, mgr, "jobR", "success")
	assert.Equal(t, "Did 3 things.", s.Message)
}

func TestManager_RunJob_Fail(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	mgr.Register("jobF", "Job F", func(ctx jobs.JobContext) {
		ctx.JobManager().Fail("jobF", "nothing to do")
	})

	assert.NoError(t, mgr.RunJob("jobF", ctx))
	s := waitForStatus(t, mgr, "jobF", "failed")
	assert.Equal(t, "nothing to do", s.Message)
}

func TestManager_RunJob_AlreadyRunning(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	block := make(chan struct{})
	mgr.Register("jobY", "Job Y", func(ctx jobs.JobContext) { <-block })
	assert.NoError(t, mgr.RunJob("jobY", ctx))
	assert.Error(t, mgr.RunJob("jobY", ctx))
	close(block)
	waitForStatus(t, mgr, "jobY", "success")
}

func TestManager_RunJob_NotFound(t *testing.T) {
	ctx := newFakeContext()
	assert.Error(t, ctx.jobMgr.RunJob("nojob", ctx))
}

func TestManager_RunJob_Panic(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	mgr.Register("panicJob", "Panic Job", func(ctx jobs.JobContext) { panic("fail") })
	assert.NoError(t, mgr.RunJob("panicJob", ctx))
	s := waitForStatus(t, mgr, "panicJob", "failed")
	assert.Contains(t, s.Message, "panicked")
}

func TestManager_Concurrency(t *testing.T) {
	ctx := newFakeContext()
	mgr := ctx.jobMgr
	var mu sync.Mutex
	var count int
	release := make(chan struct{})
	mgr.Register("jobC", "Job C", func(ctx jobs.JobContext) {
		mu.Lock()
		count++
		mu.Unlock()
		<-release
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.RunJob("jobC", ctx)
		}()
	}
	wg.Wait()
	close(release)
	waitForStatus(t, mgr, "jobC", "success")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "job should only run once concurrently")
}
