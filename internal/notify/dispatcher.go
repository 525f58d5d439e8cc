package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pkordes/room-reservation/internal/domain"
)

// ErrQueueFull is returned by Dispatcher.Publish when the buffer is full.
var ErrQueueFull = errors.New("notification queue full")

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, evt domain.ReservationEvent) error
}

// Dispatcher is an in-process event publisher. Publish never blocks the
// request; Run delivers buffered events to the handler one at a time.
type Dispatcher struct {
	events  chan domain.ReservationEvent
	handler Handler
	log     *slog.Logger
}

// NewDispatcher constructs a Dispatcher holding up to size pending events.
func NewDispatcher(handler Handler, size int, log *slog.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{events: make(chan domain.ReservationEvent, size), handler: handler, log: log}
}

// Publish queues evt for delivery.
func (d *Dispatcher) Publish(_ context.Context, evt domain.ReservationEvent) error {
	select {
	case d.events <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers events until ctx is cancelled, then drains what is already
// queued using a background context and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-d.events:
			d.deliver(ctx, evt)
		case <-ctx.Done():
			for {
				select {
				case evt := <-d.events:
					d.deliver(context.WithoutCancel(ctx), evt)
				default:
					return nil
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt domain.ReservationEvent) {
	if err := d.handler.Handle(ctx, evt); err != nil {
		d.log.ErrorContext(ctx, "notification failed",
			"kind", evt.Kind, "reservation_id", evt.ReservationID, "error", err)
	}
}
