package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	// How often stale deferred gallery links are swept, and how old a
	// deferred row must be (with no remaining ledger rows) to be dropped.
	deferredSweepInterval = 15 * time.Minute
	deferredMaxAge        = time.Hour
)

// Manager owns the job queue and its background maintenance tasks.
type Manager struct {
	queue          *Queue
	deferredTicker *time.Ticker
	stopCh         chan struct{}
	wg             sync.WaitGroup
	mu             sync.Mutex
	running        bool
}

// NewManager creates a manager around a queue.
func NewManager(queue *Queue) *Manager {
	return &Manager{
		queue:  queue,
		stopCh: make(chan struct{}),
	}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	m.deferredTicker = time.NewTicker(deferredSweepInterval)
	m.wg.Add(1)
	go m.deferredSweepWorker(m.stopCh, m.deferredTicker)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.deferredTicker != nil {
		m.deferredTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// deferredSweepWorker periodically drops deferred gallery links whose upload
// sessions have all been consumed. Workers finalize links as they finish, so
// the sweep only catches rows orphaned by crashes or never-linked uploads.
// The stop channel and ticker are passed in rather than read from the struct:
// Stop replaces both fields under the mutex, which this goroutine never holds.
func (m *Manager) deferredSweepWorker(stop <-chan struct{}, ticker *time.Ticker) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started deferred import sweeper (interval: %s)", deferredSweepInterval)

	for {
		select {
		case <-stop:
			log.Info("[JobQueue Manager] Deferred import sweeper stopping")
			return
		case <-ticker.C:
			removed, err := m.queue.svc.CleanupDeferred(deferredMaxAge)
			if err != nil {
				log.Errorf("[JobQueue Manager] Deferred import sweep error: %v", err)
				continue
			}
			if removed > 0 {
				log.Infof("[JobQueue Manager] Dropped %d stale deferred imports", removed)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
