package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink consumes escalation events (file, webhook, telegram).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// Metrics holds delivery counters for the dispatcher.
type Metrics struct {
	enqueued uint64
	dropped  uint64

	sinkSuccess map[string]uint64
	sinkFailure map[string]uint64
}

func (m *Metrics) Enqueued() uint64 { return m.enqueued }
func (m *Metrics) Dropped() uint64  { return m.dropped }

func (m *Metrics) SinkSuccess(name string) uint64 {
	if m == nil {
		return 0
	}
	return m.sinkSuccess[name]
}

func (m *Metrics) SinkFailure(name string) uint64 {
	if m == nil {
		return 0
	}
	return m.sinkFailure[name]
}

func (m *Metrics) snapshot() Metrics {
	out := Metrics{
		enqueued:    m.enqueued,
		dropped:     m.dropped,
		sinkSuccess: make(map[string]uint64, len(m.sinkSuccess)),
		sinkFailure: make(map[string]uint64, len(m.sinkFailure)),
	}
	for k, v := range m.sinkSuccess {
		out.sinkSuccess[k] = v
	}
	for k, v := range m.sinkFailure {
		out.sinkFailure[k] = v
	}
	return out
}

// Dispatcher buffers escalation events and delivers them to sinks from
// background workers. Crisis-protocol events bypass the queue and are
// delivered synchronously: a full buffer may drop a resource
// suggestion, never a crisis trigger.
type Dispatcher struct {
	queue           chan *Event
	sinks           []Sink
	metrics         *Metrics
	shutdownTimeout time.Duration
	log             *logrus.Entry

	mu        sync.RWMutex
	metricsMu sync.Mutex
	closed    bool
	wg        sync.WaitGroup
}

// DispatcherConfig controls queue and worker sizing.
type DispatcherConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// NewDispatcher starts background workers delivering to the given sinks.
func NewDispatcher(cfg DispatcherConfig, sinks []Sink, logger *logrus.Logger) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}

	m := &Metrics{
		sinkSuccess: make(map[string]uint64, len(sinks)),
		sinkFailure: make(map[string]uint64, len(sinks)),
	}
	for _, s := range sinks {
		m.sinkSuccess[s.Name()] = 0
		m.sinkFailure[s.Name()] = 0
	}

	d := &Dispatcher{
		queue:           make(chan *Event, queueSize),
		sinks:           sinks,
		metrics:         m,
		shutdownTimeout: shutdownTimeout,
		log:             logger.WithField("component", "escalation_dispatcher"),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Dispatch hands an event to the delivery pipeline. Non-crisis events
// are enqueued without blocking the request path and may be dropped
// when the queue is full. TRIGGER_CRISIS_PROTOCOL events are delivered
// in the caller's goroutine so they cannot be swallowed by queue
// pressure or a closed dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) {
	if d == nil || ev == nil {
		return
	}

	if ev.Action == ActionTriggerCrisisProtocol {
		d.deliver(ctx, ev)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.countDropped()
		return
	}

	select {
	case d.queue <- ev:
		d.metricsMu.Lock()
		d.metrics.enqueued++
		d.metricsMu.Unlock()
	default:
		d.countDropped()
		d.log.WithField("event_id", ev.ID).Warn("Escalation queue full, event dropped")
	}
}

// Close stops accepting new events and drains the queue briefly.
func (d *Dispatcher) Close(ctx context.Context) {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	waitCtx := ctx
	if waitCtx == nil {
		waitCtx = context.Background()
	}
	var cancel context.CancelFunc
	waitCtx, cancel = context.WithTimeout(waitCtx, d.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-waitCtx.Done():
	}

	for _, s := range d.sinks {
		if err := s.Close(waitCtx); err != nil {
			d.log.WithField("sink", s.Name()).WithError(err).Error("Failed to close sink")
		}
	}
}

// MetricsSnapshot copies the current delivery counters.
func (d *Dispatcher) MetricsSnapshot() Metrics {
	if d == nil || d.metrics == nil {
		return Metrics{}
	}
	d.metricsMu.Lock()
	defer d.metricsMu.Unlock()
	return d.metrics.snapshot()
}

func (d *Dispatcher) countDropped() {
	d.metricsMu.Lock()
	d.metrics.dropped++
	d.metricsMu.Unlock()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.deliver(context.Background(), ev)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev *Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, s := range d.sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			d.log.WithField("sink", s.Name()).
				WithField("event_id", ev.ID).
				WithError(err).Error("Sink delivery failed")
			d.metricsMu.Lock()
			d.metrics.sinkFailure[s.Name()]++
			d.metricsMu.Unlock()
			continue
		}
		d.metricsMu.Lock()
		d.metrics.sinkSuccess[s.Name()]++
		d.metricsMu.Unlock()
	}
}
