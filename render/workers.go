// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"runtime"
	"sync"
)

// minParallelPixels is the target area below which fragments run on the
// calling goroutine.
const minParallelPixels = 64 * 64

// rowPool runs row bands of fullscreen draws.
//
// Each worker owns a queue and steals from the others when it runs dry.
// The pool lives for the whole process and is safe for concurrent use.
type rowPool struct {
	workers int
	queues  []chan func()
}

var (
	sharedPool     *rowPool
	sharedPoolOnce sync.Once
)

// rows returns the process-wide pool, starting it on first use.
func rows() *rowPool {
	sharedPoolOnce.Do(func() {
		sharedPool = newRowPool(runtime.GOMAXPROCS(0))
	})
	return sharedPool
}

func newRowPool(workers int) *rowPool {
	workers = max(workers, 1)
	p := &rowPool{
		workers: workers,
		queues:  make([]chan func(), workers),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), max(workers*4, 8))
	}
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *rowPool) worker(id int) {
	own := p.queues[id]
	for {
		select {
		case work := <-own:
			work()
		default:
			if work := p.steal(id); work != nil {
				work()
				continue
			}
			(<-own)()
		}
	}
}

func (p *rowPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// executeAll runs every item and waits for all of them.
func (p *rowPool) executeAll(work []func()) {
	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			fn()
		}
	}
	wg.Wait()
}

// bands splits [0, h) into at most n contiguous ranges of near-equal size.
func bands(h, n int) [][2]int {
	n = min(max(n, 1), h)
	out := make([][2]int, 0, n)
	for i := range n {
		out = append(out, [2]int{h * i / n, h * (i + 1) / n})
	}
	return out
}
