package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDropWarnInterval spaces out the "audit events dropped" warning.
const DefaultDropWarnInterval = time.Minute

// Config controls dispatcher buffering and how drops and sink failures are reported.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// Logger receives drop warnings and recovered sink panics. Nil discards them.
	Logger *slog.Logger
	// DropWarnInterval is the minimum gap between drop warnings.
	DropWarnInterval time.Duration
}

// Dispatcher hands audit events to a sink on a single background goroutine so
// request paths never wait on sink I/O.
type Dispatcher struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	queue    chan Event
	stop     chan struct{}
	finished chan struct{}

	dropped       atomic.Uint64
	droppedWarned atomic.Uint64
	lastWarn      atomic.Int64
	panics        atomic.Uint64
	closed        atomic.Bool
	closeOnce     sync.Once
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is disabled;
// a nil Dispatcher accepts and discards every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.DropWarnInterval <= 0 {
		cfg.DropWarnInterval = DefaultDropWarnInterval
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := &Dispatcher{
		cfg:      cfg,
		sink:     sink,
		logger:   logger.With(slog.String("component", "audit")),
		now:      time.Now,
		queue:    make(chan Event, cfg.BufferSize),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	d.lastWarn.Store(-1)

	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.finished)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

// deliver isolates the loop from a misbehaving sink: a panic loses that event only.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.logger.Error("audit sink panicked",
				slog.String("event_type", event.EventType),
				slog.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event. With DropIfFull a full buffer counts a drop instead of
// blocking; otherwise Emit waits for space, ctx or Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.recordDrop(ctx, event)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// recordDrop counts the drop and warns at most once per DropWarnInterval, reporting
// how many drops happened since the previous warning.
func (d *Dispatcher) recordDrop(ctx context.Context, event Event) {
	total := d.dropped.Add(1)

	now := d.now().UnixNano()
	last := d.lastWarn.Load()
	if last >= 0 && now-last < int64(d.cfg.DropWarnInterval) {
		return
	}
	if !d.lastWarn.CompareAndSwap(last, now) {
		return
	}

	since := total - d.droppedWarned.Swap(total)
	d.logger.WarnContext(ctx, "audit events dropped; buffer full",
		slog.String("event_type", event.EventType),
		slog.Uint64("dropped_since_last_warning", since),
		slog.Uint64("dropped_total", total),
		slog.Int("buffer_size", d.cfg.BufferSize),
	)
}

// Close stops accepting events and delivers what is already buffered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		<-d.finished
	})
}

// Dropped reports events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// SinkPanics reports events lost to a panicking sink.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panics.Load()
}
