package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Kind identifies the domain event being announced.
type Kind string

const (
	KindTransactionCompleted Kind = "transaction.completed"
	KindTransactionFailed    Kind = "transaction.failed"
	KindStatusChanged        Kind = "status.changed"
)

// Event is a domain notification emitted by the engine after an operation.
// Audit and metrics collaborators consume events; the engine never depends on
// delivery succeeding.
type Event struct {
	Kind         Kind
	AccountID    uuid.UUID
	Reference    string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	OldStatus    string
	NewStatus    string
	Reason       string
	OccurredAt   time.Time
}

// Handler consumes one event. A returned error is logged, never retried.
type Handler func(ctx context.Context, event Event) error

// Dispatcher fans events out to subscribers from a pool of workers fed by a
// buffered queue, so publishing never blocks the operation that emitted the
// event. A full queue drops the event with a warning.
type Dispatcher struct {
	logger     *logrus.Logger
	queue      chan Event
	handlers   []Handler
	numWorkers int
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewDispatcher creates a Dispatcher with the given number of workers.
func NewDispatcher(logger *logrus.Logger, numWorkers int) *Dispatcher {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Dispatcher{
		logger:     logger,
		queue:      make(chan Event, 1000),
		numWorkers: numWorkers,
	}
}

// Subscribe registers a handler. All subscriptions must happen before Start.
func (d *Dispatcher) Subscribe(handler Handler) {
	d.handlers = append(d.handlers, handler)
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run()
		}()
	}
}

// Stop closes the queue and waits for in-flight events to drain.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}

// Publish enqueues an event. It never blocks: when the queue is full the
// event is dropped and logged, because notification delivery must not stall
// or roll back a committed operation.
func (d *Dispatcher) Publish(event Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.WithFields(logrus.Fields{
			"kind":      event.Kind,
			"accountID": event.AccountID,
			"reference": event.Reference,
		}).Warn("Dispatcher.Publish.queue full, event dropped")
	}
}

func (d *Dispatcher) run() {
	for event := range d.queue {
		for _, handler := range d.handlers {
			if err := handler(context.Background(), event); err != nil {
				d.logger.WithError(err).WithFields(logrus.Fields{
					"kind":      event.Kind,
					"accountID": event.AccountID,
				}).Warn("Dispatcher.handler error")
			}
		}
	}
}
