package events

import (
	"context"
	"log"
)

const jobsPerWorker = 64

// WorkerPool publishes dispatched events in the background.
type WorkerPool struct {
	size      int
	jobs      chan Event
	publisher Publisher
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, publisher Publisher) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:      size,
		jobs:      make(chan Event, size*jobsPerWorker),
		publisher: publisher,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Event worker %d started", id)
	for {
		select {
		case e := <-wp.jobs:
			if err := wp.publisher.Publish(ctx, e); err != nil {
				log.Printf("Event worker %d failed to publish %s for booking %s: %v", id, e.Type, e.BookingID, err)
			}
		case <-ctx.Done():
			log.Printf("Event worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event. When the queue is full the event is dropped and
// logged; callers never block on the broker.
func (wp *WorkerPool) Dispatch(e Event) {
	select {
	case wp.jobs <- e:
	default:
		log.Printf("Event queue full, dropping %s for booking %s", e.Type, e.BookingID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}
