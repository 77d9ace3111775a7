package utils

import (
	"sync"
)

// ParallelTask is a unit of work that yields a result or an error.
type ParallelTask func() (interface{}, error)

// RunParallelTasks runs every task concurrently and waits for all of them.
// Results and errors are index-aligned with the input slice, so callers can
// report per-task outcomes in the original order.
func RunParallelTasks(tasks []ParallelTask) ([]interface{}, []error) {
	var wg sync.WaitGroup
	results := make([]interface{}, len(tasks))
	errors := make([]error, len(tasks))

	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(index int, t ParallelTask) {
			defer wg.Done()
			result, err := t()
			results[index] = result
			errors[index] = err
		}(i, task)
	}

	wg.Wait()
	return results, errors
}

// WorkerPool runs queued tasks on a fixed number of goroutines. Used for
// fan-out work where unbounded goroutines would hammer storage, like purging
// every object in the trash.
type WorkerPool struct {
	maxWorkers int
	taskChan   chan func()
	wg         sync.WaitGroup
}

// NewWorkerPool starts maxWorkers goroutines ready to consume tasks.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	pool := &WorkerPool{
		maxWorkers: maxWorkers,
		taskChan:   make(chan func(), maxWorkers*2),
	}

	for i := 0; i < maxWorkers; i++ {
		go pool.worker()
	}

	return pool
}

func (p *WorkerPool) worker() {
	for task := range p.taskChan {
		task()
		p.wg.Done()
	}
}

// AddTask queues a task. Blocks when the queue is full.
func (p *WorkerPool) AddTask(task func()) {
	p.wg.Add(1)
	p.taskChan <- task
}

// Wait blocks until every queued task has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops the workers. No tasks may be added afterwards.
func (p *WorkerPool) Close() {
	close(p.taskChan)
}
