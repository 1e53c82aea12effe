package notify

import (
	"context"

	"gogogo/internal/domain/ride"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"

	"golang.org/x/sync/errgroup"
)

// Delivery is one notification addressed to one person.
type Delivery struct {
	Target  string // user id of the recipient
	Payload any
}

// Outcome is the settled state of one delivery.
type Outcome struct {
	Target string
	Status int
	Err    error // *ride.DeliveryError on transport failure
}

// Result enumerates the outcome of every delivery of a batch, in submission order.
type Result struct {
	Outcomes  []Outcome
	Delivered int
	Failed    int
}

// Dispatcher sends notifications concurrently, bounded by a parallelism limit.
type Dispatcher struct {
	notifier    ports.Notifier
	logger      *logger.Logger
	maxParallel int
}

// NewDispatcher returns a dispatcher that keeps at most maxParallel deliveries in flight.
func NewDispatcher(notifier ports.Notifier, log *logger.Logger, maxParallel int) *Dispatcher {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Dispatcher{notifier: notifier, logger: log, maxParallel: maxParallel}
}

// Dispatch attempts every delivery and waits for all of them.
// A failed delivery never cancels its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, deliveries []Delivery) Result {
	outcomes := make([]Outcome, len(deliveries))

	// plain Group: no derived context, so one failure cannot cancel the rest
	var g errgroup.Group
	g.SetLimit(d.maxParallel)

	for i, dl := range deliveries {
		g.Go(func() error {
			status, err := d.notifier.Notify(ctx, dl.Payload)
			if err != nil {
				err = &ride.DeliveryError{Target: dl.Target, Err: err}
			}
			outcomes[i] = Outcome{Target: dl.Target, Status: status, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			res.Failed++
			d.logger.Warn(ctx, "notification_failed", "Notification delivery failed", o.Err,
				map[string]any{"target": o.Target})
			continue
		}
		res.Delivered++
		d.logger.Info(ctx, "notification_delivered", "Notification delivered",
			map[string]any{"target": o.Target, "status": o.Status})
	}
	return res
}
