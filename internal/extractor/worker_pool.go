package extractor

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of batch work: a named chunk of already-loaded text.
// Loading (files, stdin, clipboard, document conversion) happens in the
// caller; the pool itself touches no I/O.
type Task struct {
	ID     string
	Source string
	Text   string
	IsHTML bool
}

// TaskResult pairs a finished task with its extraction outcome. Err is
// reserved for future per-task failure modes; extraction itself never
// fails.
type TaskResult struct {
	Task    Task
	Result  *Result
	Err     error
	Elapsed time.Duration
}

// WorkerPool runs extraction tasks in parallel over a shared Extractor.
type WorkerPool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	extractor  *Extractor
	tasks      chan Task
	results    chan TaskResult
	wg         sync.WaitGroup
	numWorkers int

	mu        sync.Mutex
	submitted int
	completed int
}

// NewWorkerPool builds a pool of numWorkers goroutines sharing one
// Extractor. Zero or negative worker counts fall back to 4.
func NewWorkerPool(e *Extractor, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		ctx:        ctx,
		cancel:     cancel,
		extractor:  e,
		tasks:      make(chan Task, numWorkers*2),
		results:    make(chan TaskResult, numWorkers*2),
		numWorkers: numWorkers,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.tasks:
			if !ok {
				return
			}

			start := time.Now()
			result := wp.extractor.Extract(task.Text, task.IsHTML)

			wp.mu.Lock()
			wp.completed++
			wp.mu.Unlock()

			wp.results <- TaskResult{
				Task:    task,
				Result:  result,
				Elapsed: time.Since(start),
			}
		}
	}
}

// Submit queues a task. It blocks when the queue is full and returns
// early if the pool was shut down.
func (wp *WorkerPool) Submit(task Task) {
	wp.mu.Lock()
	wp.submitted++
	wp.mu.Unlock()

	select {
	case wp.tasks <- task:
	case <-wp.ctx.Done():
	}
}

// SubmitBatch queues multiple tasks.
func (wp *WorkerPool) SubmitBatch(tasks []Task) {
	for _, task := range tasks {
		wp.Submit(task)
	}
}

// Results returns the channel the caller drains for finished tasks.
func (wp *WorkerPool) Results() <-chan TaskResult {
	return wp.results
}

// Wait signals that no more tasks will arrive, waits for the workers to
// drain the queue, and closes the results channel. Call after the last
// Submit; drain Results concurrently or the workers block.
func (wp *WorkerPool) Wait() {
	close(wp.tasks)
	wp.wg.Wait()
	close(wp.results)
}

// Shutdown cancels outstanding work and releases the workers.
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

// Stats reports submitted and completed task counts.
func (wp *WorkerPool) Stats() (submitted, completed int) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	return wp.submitted, wp.completed
}
