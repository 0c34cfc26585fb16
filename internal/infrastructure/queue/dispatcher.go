package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/RiseNet-Web/gestasso-sub002/internal/api/metrics"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/domain"
	"github.com/RiseNet-Web/gestasso-sub002/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes security events to a fixed set of workers using
// consistent hashing on the user ID, so incidents for one account are
// handled in the order they were reported.
type Dispatcher struct {
	workers []chan domain.SecurityEvent
	service ports.SecurityEventService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.SecurityEventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SecurityEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SecurityEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Report sends an event to the worker responsible for its user. The call
// is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Report(event domain.SecurityEvent) {
	idx := d.shardIndex(event.UserID)
	d.workers[idx] <- event
	metrics.SecurityQueueDepth.WithLabelValues(workerLabel(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a user ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SecurityEvent) {
	label := workerLabel(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.SecurityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("user_id", event.UserID).
					Str("kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("security event processing failed")
			}
		}
	}
}

func workerLabel(id int) string {
	return strconv.Itoa(id)
}
