package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher sends messages best-effort from a background worker so the
// state-changing operation that triggered them never waits on, or fails
// because of, the messaging API.
type Dispatcher struct {
	sender  Sender
	logger  *zap.Logger
	retries int

	queue  chan string
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, logger *zap.Logger, retries, queueSize int) *Dispatcher {
	if retries < 1 {
		retries = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		retries: retries,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
	}

	go d.run()

	return d
}

// Dispatch enqueues a message without blocking. A full queue drops the
// message with a log line; order state is already committed at this point.
// Dispatching after Close drops the message the same way.
func (d *Dispatcher) Dispatch(text string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, dropping message")
		return
	}

	select {
	case d.queue <- text:
	default:
		d.logger.Warn("notification queue full, dropping message")
	}
}

// Close stops accepting messages and drains the queue.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	backoffs := []time.Duration{0, 500 * time.Millisecond, 2 * time.Second}

	for text := range d.queue {
		var err error
		for attempt := 1; attempt <= d.retries; attempt++ {
			if attempt > 1 {
				idx := attempt - 1
				if idx >= len(backoffs) {
					idx = len(backoffs) - 1
				}
				time.Sleep(backoffs[idx])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = d.sender.Send(ctx, text)
			cancel()
			if err == nil {
				break
			}

			d.logger.Warn("notification send failed",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", d.retries),
				zap.Error(err))
		}

		if err != nil {
			// Swallowed: notifications are best-effort.
			d.logger.Error("notification dropped after retries", zap.Error(err))
		}
	}
}
