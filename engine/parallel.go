package engine

import (
	"fmt"
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum item count for a parallel pass.
// Below this, running on the caller is faster than waking the workers.
const defaultParallelThreshold = 64

// workChunk is a range of items for one worker.
type workChunk struct {
	start, end int
	fn         func(start, end int)
}

// workerPool runs data-parallel passes on persistent goroutines. run
// returns only after every chunk it dispatched has finished, which is the
// barrier between stages.
type workerPool struct {
	numWorkers int
	threshold  int

	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newWorkerPool(numWorkers, threshold int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &workerPool{numWorkers: numWorkers, threshold: threshold}
}

// start launches the worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan error, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- runChunk(chunk)
		}
	}
}

// runChunk executes one chunk, turning a panic into an error so a failing
// task cannot take the barrier down with it.
func runChunk(c workChunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task [%d,%d) panicked: %v", c.start, c.end, r)
		}
	}()
	c.fn(c.start, c.end)
	return nil
}

// run applies fn over [0, n) and waits for completion. Not safe for
// concurrent callers.
func (p *workerPool) run(n int, fn func(start, end int)) error {
	if !p.running {
		return errPoolStopped
	}
	if n <= 0 {
		return nil
	}

	if n < p.threshold || p.numWorkers == 1 {
		return runChunk(workChunk{start: 0, end: n, fn: fn})
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	var first error
	for i := 0; i < dispatched; i++ {
		if err := <-p.doneChan; err != nil && first == nil {
			first = err
		}
	}
	return first
}
