package worker

import (
	"context"
	"sync"
)

// ProcessFunc handles a single job. Errors are the processor's own
// business; the pool never interprets them.
type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool is a fixed-size worker pool over a buffered job channel. Each
// job is processed by exactly one worker.
type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
}

func NewPool[J any](numWorkers int, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[J]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, job)
		}
	}
}

// Submit blocks when the buffer is full.
func (p *Pool[J]) Submit(job J) {
	p.jobs <- job
}

// Stop closes the job channel and waits for workers to drain it.
func (p *Pool[J]) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
