// A scripted transport for development and testing. It reports progress
// and finishes the way it is told to without making network calls.
package mocktransport

import (
	"context"
	"sync"
	"time"

	"github.com/vrsandeep/xmlup/internal/transfer"
)

// Step is one progress report.
type Step struct {
	Sent  int64
	Total int64
}

// Script describes a single transfer.
type Script struct {
	Steps []Step
	// Err, when set, ends the transfer with this error after the steps.
	Err error
	// Release, when set, holds the transfer after its steps until closed.
	Release <-chan struct{}
}

// Transport replays scripts keyed by item name. Items without a script
// report half and full progress and succeed.
type Transport struct {
	// StepDelay is slept before each progress report.
	StepDelay time.Duration

	mu      sync.Mutex
	scripts map[string]Script
	calls   []string
}

func New() *Transport {
	return &Transport{scripts: make(map[string]Script)}
}

// Script sets the script for name.
func (t *Transport) Script(name string, s Script) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts[name] = s
}

// Calls returns the names sent so far, in call order.
func (t *Transport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *Transport) Send(ctx context.Context, name string, data []byte, report transfer.ProgressFunc) error {
	t.mu.Lock()
	t.calls = append(t.calls, name)
	s, ok := t.scripts[name]
	t.mu.Unlock()

	if !ok {
		total := int64(len(data))
		if total == 0 {
			total = 1
		}
		s = Script{Steps: []Step{{Sent: total / 2, Total: total}, {Sent: total, Total: total}}}
	}

	for _, step := range s.Steps {
		if t.StepDelay > 0 {
			select {
			case <-time.After(t.StepDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		report(step.Sent, step.Total)
	}
	if s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err
}
