// Package worker provides background processing for playlist ledger writes.
package worker

import (
	"context"
	"sync"
	"time"

	"goa.design/clue/log"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

// DefaultSaveTimeout bounds a single ledger write.
const DefaultSaveTimeout = 5 * time.Second

// Pool persists playlist records off the request path.
type Pool struct {
	repo    ports.PlaylistRepository
	jobs    chan domain.PlaylistRecord
	wg      sync.WaitGroup
	logCtx  context.Context
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool
}

var _ ports.PlaylistRecorder = (*Pool)(nil)

// NewPool creates a pool with the given queue size. logCtx carries the
// process logger used by the workers.
func NewPool(logCtx context.Context, repo ports.PlaylistRepository, queueSize int, timeout time.Duration) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	return &Pool{
		repo:    repo,
		jobs:    make(chan domain.PlaylistRecord, queueSize),
		logCtx:  logCtx,
		timeout: timeout,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for rec := range p.jobs {
				p.save(rec)
			}
		}()
	}
}

// Stop closes the queue and waits for queued records to be written.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Record queues rec without blocking. Records are dropped with a warning when
// the queue is full or the pool is stopped.
func (p *Pool) Record(rec domain.PlaylistRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		log.Warn(p.logCtx, log.KV{K: "msg", V: "worker: pool stopped, dropping record"}, log.KV{K: "playlist", V: rec.PlaylistID})
		return
	}
	select {
	case p.jobs <- rec:
	default:
		log.Warn(p.logCtx, log.KV{K: "msg", V: "worker: queue full, dropping record"}, log.KV{K: "playlist", V: rec.PlaylistID})
	}
}

func (p *Pool) save(rec domain.PlaylistRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(p.logCtx), p.timeout)
	defer cancel()
	if err := p.repo.SaveRecord(ctx, rec); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "worker: failed to save playlist record"}, log.KV{K: "playlist", V: rec.PlaylistID})
		return
	}
	log.Debugf(ctx, "worker: saved record for playlist %s (session %s)", rec.PlaylistID, rec.SessionID)
}
