package workerpool

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// If workers idle for at least this period of time, stop one.
	idleTimeout = 2 * time.Second
)

// TaskPool runs submitted functions on a bounded set of workers that are
// spawned on demand and reaped when idle. The arbitrage pipeline submits
// its cache and persistence writes here so a slow Redis or Postgres
// never stalls a detection pass.
type TaskPool struct {
	maxWorkers  int
	taskQueue   chan func()
	workerQueue chan func()
	stoppedChan chan struct{}
	stopOnce    sync.Once
	metrics     struct {
		workersActive atomic.Int32
		tasksDropped  atomic.Int32
	}
}

func NewTaskPool(maxWorkers int) *TaskPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	pool := &TaskPool{
		maxWorkers:  maxWorkers,
		taskQueue:   make(chan func(), 1000),
		workerQueue: make(chan func()),
		stoppedChan: make(chan struct{}),
	}

	go pool.dispatch()

	return pool
}

// Submit enqueues a function for a worker to execute. Tasks are dropped
// when the queue is full.
func (p *TaskPool) Submit(task func()) {
	if task != nil {
		select {
		case p.taskQueue <- task:
		default:
			p.metrics.tasksDropped.Add(1)
		}
	}
}

// Stop drains the queue, stops the workers and waits for them.
func (p *TaskPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.taskQueue)
	})
	<-p.stoppedChan
}

// TasksDropped reports how many submissions were rejected on a full queue.
func (p *TaskPool) TasksDropped() int32 {
	return p.metrics.tasksDropped.Load()
}

func worker(task func(), workerQueue chan func(), wg *sync.WaitGroup, workersActive *atomic.Int32) {
	defer func() {
		workersActive.Add(-1)
		wg.Done()
	}()
	for task != nil {
		task()
		task = <-workerQueue
	}
}

func (p *TaskPool) dispatch() {
	defer close(p.stoppedChan)
	var wg sync.WaitGroup
	timeout := time.NewTimer(idleTimeout)
	defer timeout.Stop()

	var workerCount int
	var idle bool

	for {
		select {
		case task, ok := <-p.taskQueue:
			if !ok {
				for workerCount > 0 {
					p.workerQueue <- nil
					workerCount--
				}
				wg.Wait()

				return
			}

			select {
			case p.workerQueue <- task:
			default:
				if workerCount < p.maxWorkers {
					wg.Add(1)
					go worker(task, p.workerQueue, &wg, &p.metrics.workersActive)
					workerCount++
					p.metrics.workersActive.Add(1)
				} else {
					p.metrics.tasksDropped.Add(1)
				}
				idle = false
			}
		case <-timeout.C:
			if idle && workerCount > 0 {
				p.workerQueue <- nil
				workerCount--
			}
			idle = true
			timeout.Reset(idleTimeout)
		}
	}
}
