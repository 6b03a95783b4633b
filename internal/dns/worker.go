package dns

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/logging"
	"go_domainbot/internal/model"
)

// WorkerConfig holds configuration for the DNS sync worker
type WorkerConfig struct {
	Enabled     bool
	IntervalSec int
}

// DomainLister returns the domains the worker refreshes on every tick
type DomainLister interface {
	ListWithZone(ctx context.Context) ([]model.RegisteredDomain, error)
}

// SyncWorker keeps dns_records in step with the provider. Domain ids are
// queued by Enqueue or by the periodic tick; the queue is unbounded and each
// id is held at most once.
type SyncWorker struct {
	service *Service
	domains DomainLister
	config  WorkerConfig
	logger  *logrus.Entry

	mu     sync.Mutex
	queue  []int
	queued map[int]struct{}
	wake   chan struct{}
}

// NewSyncWorker creates a new DNS sync worker
func NewSyncWorker(service *Service, domains DomainLister, config WorkerConfig, logger *logrus.Entry) *SyncWorker {
	if config.IntervalSec <= 0 {
		config.IntervalSec = 300
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SyncWorker{
		service: service,
		domains: domains,
		config:  config,
		logger:  logger.WithField("component", "dns_sync"),
		queued:  make(map[int]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue schedules a domain for a pull. It never blocks.
func (w *SyncWorker) Enqueue(domainID int) {
	w.mu.Lock()
	if _, ok := w.queued[domainID]; !ok {
		w.queued[domainID] = struct{}{}
		w.queue = append(w.queue, domainID)
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued domains
func (w *SyncWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Run processes the queue until ctx is cancelled. A disabled worker returns at once.
func (w *SyncWorker) Run(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.Info("disabled, not starting")
		return nil
	}

	w.logger.WithField("interval_sec", w.config.IntervalSec).Info("starting")
	ticker := time.NewTicker(time.Duration(w.config.IntervalSec) * time.Second)
	defer ticker.Stop()

	// Run immediately on start
	w.enqueueAll(ctx)
	w.Drain(ctx)

	for {
		select {
		case <-ticker.C:
			w.enqueueAll(ctx)
			w.Drain(ctx)
		case <-w.wake:
			w.Drain(ctx)
		case <-ctx.Done():
			w.logger.Info("stopped")
			return nil
		}
	}
}

// Drain pulls every queued domain and returns how many succeeded
func (w *SyncWorker) Drain(ctx context.Context) int {
	ok := 0
	for ctx.Err() == nil {
		id, more := w.next()
		if !more {
			break
		}
		res, err := w.service.PullRecords(ctx, id)
		if err != nil {
			w.logger.WithError(err).WithField("domain_id", id).Warn("pull failed")
			continue
		}
		ok++
		if res.Created+res.Updated > 0 || res.Removed > 0 {
			w.logger.WithFields(logrus.Fields{
				"domain_id": id,
				"created":   res.Created,
				"updated":   res.Updated,
				"removed":   res.Removed,
			}).Info("records synced")
		}
	}
	return ok
}

func (w *SyncWorker) next() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return 0, false
	}
	id := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, id)
	return id, true
}

func (w *SyncWorker) enqueueAll(ctx context.Context) {
	domains, err := w.domains.ListWithZone(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to list domains")
		return
	}
	for _, d := range domains {
		w.Enqueue(d.ID)
	}
}
