package notify

import (
	"context"
	"sync"
	"time"

	"github.com/capefasteners/supply-ai-platform/internal/observability/metrics"
	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const deliverTimeout = 10 * time.Second

// Queue is the outbound notification queue. Producers enqueue without
// blocking; worker goroutines deliver asynchronously. A full queue drops
// the payload with a logged warning rather than stalling the scoring path.
type Queue struct {
	service *Service
	ch      chan scoring.HotLeadNotification
	metrics *metrics.AssistantMetrics
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ scoring.Notifier = (*Queue)(nil)

// NewQueue starts a queue with the given buffer and worker count. Metrics
// may be nil.
func NewQueue(service *Service, buffer, workers int, m *metrics.AssistantMetrics, logger *logging.Logger) *Queue {
	if service == nil {
		panic("notify: service cannot be nil")
	}
	if buffer <= 0 {
		buffer = 128
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		service: service,
		ch:      make(chan scoring.HotLeadNotification, buffer),
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// NotifyHotLead enqueues the payload without blocking the caller.
func (q *Queue) NotifyHotLead(n scoring.HotLeadNotification) {
	select {
	case q.ch <- n:
	default:
		q.logger.Warn("notification queue full, payload dropped",
			"session_id", n.SessionID, "score", n.Score)
	}
}

// Shutdown stops accepting deliveries and waits for in-flight work, up to
// the context deadline.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.cancel()
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case n := <-q.ch:
			ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
			if err := q.service.DeliverHotLead(ctx, n); err != nil {
				q.logger.Error("hot lead delivery failed", "error", err, "session_id", n.SessionID)
			} else {
				q.metrics.ObserveHotLead()
			}
			cancel()
		}
	}
}
