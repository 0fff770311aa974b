package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"profsafe-backend/internal/metrics"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultQueueSize = 32
)

// WorkerPool delivers alert messages to every channel off the request path.
type WorkerPool struct {
	size     int
	jobs     chan Message
	channels []Channel
	timeout  time.Duration
	onResult func(Message, []Result)
}

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithTimeout bounds each channel send.
func WithTimeout(d time.Duration) PoolOption {
	return func(wp *WorkerPool) {
		if d > 0 {
			wp.timeout = d
		}
	}
}

// WithQueueSize sets the job buffer length.
func WithQueueSize(n int) PoolOption {
	return func(wp *WorkerPool) {
		if n > 0 {
			wp.jobs = make(chan Message, n)
		}
	}
}

// WithResultHook is called by a worker after each job is delivered.
func WithResultHook(fn func(Message, []Result)) PoolOption {
	return func(wp *WorkerPool) {
		wp.onResult = fn
	}
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, channels []Channel, opts ...PoolOption) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	wp := &WorkerPool{
		size:     size,
		jobs:     make(chan Message, DefaultQueueSize),
		channels: channels,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(wp)
	}
	return wp
}

// Start launches the worker goroutines. Sends are bounded by ctx, so
// cancelling it stops in-flight deliveries as well.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case msg := <-wp.jobs:
			results := wp.Deliver(ctx, msg)
			for _, r := range results {
				if !r.OK {
					log.Printf("Worker %d: %s delivery for alert %s failed: %s", id, r.Channel, msg.AlertID, r.Reason)
				}
			}
			if wp.onResult != nil {
				wp.onResult(msg, results)
			}
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a message without blocking. It returns false when the queue
// is full and the message was dropped.
func (wp *WorkerPool) Dispatch(msg Message) bool {
	select {
	case wp.jobs <- msg:
		return true
	default:
		log.Printf("notification queue full; dropping alert %s", msg.AlertID)
		metrics.IncNotificationDropped()
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Message {
	return wp.jobs
}

// Deliver sends msg to every channel concurrently and waits for all of them.
// Results keep the channel order.
func (wp *WorkerPool) Deliver(ctx context.Context, msg Message) []Result {
	results := make([]Result, len(wp.channels))
	var wg sync.WaitGroup
	for i, ch := range wp.channels {
		if !ch.Enabled() {
			results[i] = Result{Channel: ch.Name(), Reason: ch.Name() + " disabled"}
			continue
		}
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = wp.send(ctx, ch, msg)
		}(i, ch)
	}
	wg.Wait()
	return results
}

func (wp *WorkerPool) send(ctx context.Context, ch Channel, msg Message) Result {
	sendCtx, cancel := context.WithTimeout(ctx, wp.timeout)
	defer cancel()

	start := time.Now()
	err := ch.Send(sendCtx, msg)
	metrics.ObserveNotification(ch.Name(), err == nil, time.Since(start))
	if err != nil {
		return Result{Channel: ch.Name(), Reason: err.Error()}
	}
	return Result{Channel: ch.Name(), OK: true}
}
