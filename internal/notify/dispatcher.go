package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher hands messages to a fixed set of workers so a slow gateway never
// holds up the request that produced the message.
type Dispatcher struct {
	next        Sender
	workerCount int
	timeout     time.Duration
	queue       chan Message
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	closeMu     sync.RWMutex
	logger      *slog.Logger
}

func NewDispatcher(next Sender, workerCount int, logger *slog.Logger) *Dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		next:        next,
		workerCount: workerCount,
		timeout:     10 * time.Second,
		queue:       make(chan Message, workerCount*32),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("notification_dispatcher_started", "workers", d.workerCount)
}

// Deliver enqueues msg. It reports false when the queue is full or the
// dispatcher is stopping; the message is dropped in that case.
func (d *Dispatcher) Deliver(_ context.Context, msg Message) bool {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("notification_queue_full", "user_id", msg.UserID, "type", msg.Type)
		return false
	}
}

// Wait stops accepting messages and blocks until queued ones are delivered.
func (d *Dispatcher) Wait() {
	d.closeMu.Lock()
	if !d.closed {
		close(d.queue)
		d.closed = true
	}
	d.closeMu.Unlock()

	d.wg.Wait()
}

// Shutdown abandons queued messages and waits for in-flight deliveries.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.Wait()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for msg := range d.queue {
		select {
		case <-d.ctx.Done():
			continue
		default:
		}

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		if !d.next.Deliver(ctx, msg) {
			d.logger.Warn("notification_delivery_failed",
				"worker", id,
				"user_id", msg.UserID,
				"type", msg.Type,
			)
		}
		cancel()
	}
}
