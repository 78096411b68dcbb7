package credauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples engine operations from sink latency. Events are
// handed to a buffered channel and delivered by a single worker goroutine,
// so a slow sink can never stall a credential flow.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	stop       chan struct{}
	dropIfFull bool
	dropped    atomic.Uint64
	closing    atomic.Bool
	stopOnce   sync.Once
	workerDone sync.WaitGroup
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, buffer),
		stop:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}

	d.workerDone.Add(1)
	go d.deliver()

	return d
}

// deliver runs on the worker goroutine until Close. After stop is signalled
// it drains every buffered event before returning, so events accepted by
// Emit are never silently lost on shutdown.
func (d *auditDispatcher) deliver() {
	defer d.workerDone.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues event for asynchronous delivery. With DropIfFull set a full
// buffer increments the drop counter instead of blocking; otherwise Emit
// blocks until there is room, the caller's ctx is done, or the dispatcher
// shuts down. Emitting on a nil or closed dispatcher is a no-op.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops the worker and waits for buffered events to be delivered.
// Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.workerDone.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
