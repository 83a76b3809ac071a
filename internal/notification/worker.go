package notification

import (
	"context"
	"log"
)

// WorkerPool manages a pool of workers for sending emails.
type WorkerPool struct {
	size   int
	jobs   chan Message
	sender Sender
}

// NewWorkerPool creates a new worker pool with a queue of queueSize messages.
func NewWorkerPool(size, queueSize int, sender Sender) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan Message, queueSize), // Buffered channel
		sender: sender,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Mail worker %d started", id)
	for {
		select {
		case msg := <-wp.jobs:
			if err := wp.sender.Send(msg); err != nil {
				log.Printf("Mail worker %d: %v", id, err)
				continue
			}
			log.Printf("Mail worker %d sent %q to %v", id, msg.Subject, msg.To)
		case <-ctx.Done():
			log.Printf("Mail worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues msg. It never blocks; a full queue drops the message.
func (wp *WorkerPool) Dispatch(msg Message) bool {
	select {
	case wp.jobs <- msg:
		return true
	default:
		log.Printf("Mail queue full; dropping %q to %v", msg.Subject, msg.To)
		return false
	}
}

// Pending returns the number of queued messages.
func (wp *WorkerPool) Pending() int {
	return len(wp.jobs)
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Message {
	return wp.jobs
}
