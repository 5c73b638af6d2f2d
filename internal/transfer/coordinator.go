// Package transfer owns the lifecycle of an upload batch: every document is
// converted first, then all converted documents are sent concurrently while
// per-item status, progress, errors and the aggregate estimate are published.
package transfer

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vrsandeep/xmlup/internal/convert"
	"github.com/vrsandeep/xmlup/internal/eta"
	"github.com/vrsandeep/xmlup/internal/markup"
	"github.com/vrsandeep/xmlup/internal/models"
)

// Coordinator runs one batch at a time. Starting a batch replaces the
// previous one; events still arriving for a replaced batch are dropped by
// comparing the generation they were started under.
type Coordinator struct {
	transport  Transport
	publisher  Publisher
	classifier Classifier
	// Now is the clock used for start times and the estimate.
	Now func() time.Time

	mu        sync.Mutex
	gen       uint64
	batch     *batch
	estimator eta.Estimator
}

// transferSlot is the in-flight state of one dispatched item. A second item
// with the same name replaces the slot, and events of the replaced slot are
// ignored from then on.
type transferSlot struct {
	start time.Time
}

type batch struct {
	gen        uint64
	records    []models.ParsedRecord
	status     map[string]models.ItemStatus
	progress   map[string]int
	errors     map[string]string
	failures   map[string]error
	slots      map[string]*transferSlot
	aggregate  models.Aggregate
	dispatched bool
	inFlight   int
	finished   bool
	done       chan struct{}
}

func (b *batch) finish() {
	if !b.finished {
		b.finished = true
		close(b.done)
	}
}

func newBatch(gen uint64) *batch {
	return &batch{
		gen:       gen,
		records:   []models.ParsedRecord{},
		status:    make(map[string]models.ItemStatus),
		progress:  make(map[string]int),
		errors:    make(map[string]string),
		failures:  make(map[string]error),
		slots:     make(map[string]*transferSlot),
		aggregate: models.Aggregate{ETA: eta.Calculating},
		done:      make(chan struct{}),
	}
}

// converted is an item that passed the conversion stage.
type converted struct {
	item models.RawItem
	slot *transferSlot
}

// NewCoordinator returns an idle coordinator. publisher and classifier may
// be nil.
func NewCoordinator(transport Transport, publisher Publisher, classifier Classifier) *Coordinator {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	c := &Coordinator{
		transport:  transport,
		publisher:  publisher,
		classifier: classifier,
		Now:        time.Now,
	}
	c.batch = newBatch(0)
	c.batch.finish()
	return c
}

// StartBatch discards the current batch and starts a new one. It returns
// immediately with the new generation; ctx is handed to every Send and is
// meant to live as long as the process, not the request that submitted the
// batch.
func (c *Coordinator) StartBatch(ctx context.Context, items []models.RawItem) uint64 {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.batch.finish()
	c.batch = newBatch(gen)
	c.estimator.Reset(time.Time{})
	c.publishAll(c.batch)
	c.mu.Unlock()

	log.Printf("Starting batch %d with %d item(s)", gen, len(items))

	var (
		wg      sync.WaitGroup
		listMu  sync.Mutex
		toSend  = make([]converted, 0, len(items))
		ordered = make([]int, 0, len(items))
	)
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.RawItem) {
			defer wg.Done()
			if c.convertItem(gen, item) {
				listMu.Lock()
				toSend = append(toSend, converted{item: item})
				ordered = append(ordered, i)
				listMu.Unlock()
			}
		}(i, item)
	}

	// All conversions finish before the first send starts.
	go func() {
		wg.Wait()
		sort.Sort(byIndex{items: toSend, index: ordered})
		c.dispatch(ctx, gen, toSend)
	}()
	return gen
}

func (c *Coordinator) convertItem(gen uint64, item models.RawItem) bool {
	record, err := c.parse(item)

	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.batch
	if b.gen != gen {
		return false
	}
	if err != nil {
		log.Printf("Batch %d: %v", gen, err)
		b.status[item.Name] = models.StatusError
		b.errors[item.Name] = err.Err.Error()
		b.failures[item.Name] = err
		c.publishStatus(b)
		c.publishErrors(b)
		return false
	}
	b.records = append(b.records, record)
	c.publishRecords(b)
	return true
}

func (c *Coordinator) parse(item models.RawItem) (rec models.ParsedRecord, perr *ItemParseError) {
	defer func() {
		if r := recover(); r != nil {
			perr = &ItemParseError{Name: item.Name, Err: fmt.Errorf("converter panicked: %v", r)}
		}
	}()
	doc, err := markup.ParseFile(item.Name, item.Data)
	if err != nil {
		return models.ParsedRecord{}, &ItemParseError{Name: item.Name, Err: err}
	}
	content, _ := convert.Convert(doc)
	rec = models.ParsedRecord{Name: item.Name, Content: content}
	if c.classifier != nil {
		rec.Kind = c.classifier.Classify(doc)
	}
	return rec, nil
}

func (c *Coordinator) dispatch(ctx context.Context, gen uint64, toSend []converted) {
	c.mu.Lock()
	b := c.batch
	if b.gen != gen {
		c.mu.Unlock()
		return
	}
	now := c.Now()
	c.estimator.Reset(now)
	b.dispatched = true
	for i := range toSend {
		name := toSend[i].item.Name
		slot := &transferSlot{start: now}
		toSend[i].slot = slot
		b.slots[name] = slot
		b.status[name] = models.StatusPending
		b.progress[name] = 0
		delete(b.errors, name)
		delete(b.failures, name)
	}
	b.inFlight = len(toSend)
	c.publishStatus(b)
	c.publishProgress(b)
	c.publishErrors(b)
	c.refreshAggregate(b)
	if b.inFlight == 0 {
		b.finish()
	}
	c.mu.Unlock()

	if len(toSend) > 0 {
		log.Printf("Batch %d: dispatching %d item(s)", gen, len(toSend))
	}
	for _, cv := range toSend {
		go c.send(ctx, gen, cv)
	}
}

func (c *Coordinator) send(ctx context.Context, gen uint64, cv converted) {
	name := cv.item.Name
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("transport panicked: %v", r)
			}
		}()
		err = c.transport.Send(ctx, name, cv.item.Data, func(sent, total int64) {
			c.onProgress(gen, name, cv.slot, sent, total)
		})
	}()
	c.onDone(gen, name, cv.slot, err)
}

// current reports whether events for slot should still be applied. Caller
// holds c.mu.
func (c *Coordinator) current(gen uint64, name string, slot *transferSlot) bool {
	b := c.batch
	return b.gen == gen && b.slots[name] == slot && b.status[name] == models.StatusPending
}

func (c *Coordinator) onProgress(gen uint64, name string, slot *transferSlot, sent, total int64) {
	if total <= 0 {
		return
	}
	p := int(math.Round(100 * float64(sent) / float64(total)))
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen, name, slot) {
		return
	}
	b := c.batch
	b.progress[name] = p
	c.publishProgress(b)
	c.refreshAggregate(b)
}

func (c *Coordinator) onDone(gen uint64, name string, slot *transferSlot, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.batch
	if b.gen != gen {
		return
	}
	if c.current(gen, name, slot) {
		if err == nil {
			b.status[name] = models.StatusSuccess
			b.progress[name] = 100
			c.publishProgress(b)
		} else {
			reason := err.Error()
			if reason == "" {
				reason = UnknownError
			}
			log.Printf("Batch %d: upload of '%s' failed: %s", gen, name, reason)
			b.status[name] = models.StatusError
			b.errors[name] = reason
			b.failures[name] = &TransferError{Name: name, Reason: reason}
			c.publishErrors(b)
		}
		c.publishStatus(b)
		c.refreshAggregate(b)
	}
	b.inFlight--
	if b.inFlight == 0 {
		log.Printf("Batch %d finished", gen)
		b.finish()
	}
}

// refreshAggregate recomputes and publishes the aggregate. Caller holds c.mu.
func (c *Coordinator) refreshAggregate(b *batch) {
	values := make([]int, 0, len(b.progress))
	for _, p := range b.progress {
		values = append(values, p)
	}
	overall := eta.OverallProgress(values)

	estimate := eta.Calculating
	if b.dispatched {
		now := c.Now()
		in := eta.Input{Items: len(b.status), Overall: overall}
		for name, st := range b.status {
			if st != models.StatusPending {
				continue
			}
			in.Pending++
			if slot := b.slots[name]; slot != nil && !slot.start.IsZero() {
				in.Samples = append(in.Samples, eta.Sample{Progress: b.progress[name], Elapsed: now.Sub(slot.start)})
			}
		}
		estimate = c.estimator.Estimate(now, in)
	}

	b.aggregate = models.Aggregate{Progress: overall, ETA: estimate}
	c.publish(b, models.StreamAggregate, b.aggregate)
}

// Generation returns the generation of the live batch, 0 before the first.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.gen
}

// Done returns a channel closed once the live batch has no conversion or
// transfer left, or once it is replaced by a newer batch.
func (c *Coordinator) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.done
}

// Wait blocks until the live batch finished or ctx ends.
func (c *Coordinator) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the live batch.
func (c *Coordinator) Snapshot() models.BatchSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.batch
	return models.BatchSnapshot{
		Generation: b.gen,
		Records:    copyRecords(b.records),
		Status:     copyMap(b.status),
		Progress:   copyMap(b.progress),
		Errors:     copyMap(b.errors),
		Aggregate:  b.aggregate,
	}
}

// Metrics returns the latest aggregate.
func (c *Coordinator) Metrics() models.Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.aggregate
}

// Progress returns an item's progress, 0 for unknown names.
func (c *Coordinator) Progress(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.progress[name]
}

// Error returns an item's error message, "" for unknown names.
func (c *Coordinator) Error(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.errors[name]
}

// Status returns an item's status and whether the item is known.
func (c *Coordinator) Status(name string) (models.ItemStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.batch.status[name]
	return st, ok
}

// Failure returns the typed failure of an item: *ItemParseError,
// *TransferError, or nil.
func (c *Coordinator) Failure(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch.failures[name]
}

func (c *Coordinator) publishAll(b *batch) {
	c.publishRecords(b)
	c.publishStatus(b)
	c.publishProgress(b)
	c.publishErrors(b)
	c.publish(b, models.StreamAggregate, b.aggregate)
}

func (c *Coordinator) publishRecords(b *batch) {
	c.publish(b, models.StreamRecords, copyRecords(b.records))
}

func (c *Coordinator) publishStatus(b *batch) {
	c.publish(b, models.StreamStatus, copyMap(b.status))
}

func (c *Coordinator) publishProgress(b *batch) {
	c.publish(b, models.StreamProgress, copyMap(b.progress))
}

func (c *Coordinator) publishErrors(b *batch) {
	c.publish(b, models.StreamErrors, copyMap(b.errors))
}

func (c *Coordinator) publish(b *batch, stream string, data interface{}) {
	c.publisher.Publish(models.ProgressUpdate{Stream: stream, Generation: b.gen, Data: data})
}

func copyRecords(in []models.ParsedRecord) []models.ParsedRecord {
	out := make([]models.ParsedRecord, len(in))
	copy(out, in)
	return out
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// byIndex keeps dispatch in submission order so logs and start times are
// predictable; sends still run concurrently.
type byIndex struct {
	items []converted
	index []int
}

func (s byIndex) Len() int           { return len(s.items) }
func (s byIndex) Less(i, j int) bool { return s.index[i] < s.index[j] }
func (s byIndex) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.index[i], s.index[j] = s.index[j], s.index[i]
}
