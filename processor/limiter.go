package processor

import (
	"sync"
)

// downloadLimiter bounds the number of thumbnail/overview downloads
// in flight at once.
type downloadLimiter struct {
	wg   sync.WaitGroup
	pool chan struct{}
}

func newDownloadLimiter(level int) *downloadLimiter {
	if level < 1 {
		level = 1
	}
	return &downloadLimiter{pool: make(chan struct{}, level)}
}

// Acquire blocks until a download slot is free.
func (l *downloadLimiter) Acquire() {
	l.wg.Add(1)
	l.pool <- struct{}{}
}

func (l *downloadLimiter) Release() {
	select {
	case <-l.pool:
		l.wg.Done()
	default:
	}
}

func (l *downloadLimiter) Wait() {
	l.wg.Wait()
}
