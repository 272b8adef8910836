package page

import (
	"context"

	"go.uber.org/zap"
)

// EventType names a browser event.
type EventType string

const (
	EventReady  EventType = "ready"
	EventClick  EventType = "click"
	EventResize EventType = "resize"
	EventScroll EventType = "scroll"
)

// Event is a browser event. Target is only set for element events.
type Event struct {
	Type     EventType
	Target   Element
	Viewport Viewport
}

// Handler reacts to one event.
type Handler func(Event)

// Loop dispatches events to handlers one at a time.
type Loop struct {
	log      *zap.Logger
	handlers map[EventType][]Handler
}

// NewLoop creates an empty loop. A nil logger disables logging.
func NewLoop(log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{log: log.Named("page"), handlers: make(map[EventType][]Handler)}
}

// On registers h for events of type t. Handlers run in registration order.
func (l *Loop) On(t EventType, h Handler) {
	l.handlers[t] = append(l.handlers[t], h)
}

// Dispatch runs the handlers for ev synchronously.
func (l *Loop) Dispatch(ev Event) {
	hs := l.handlers[ev.Type]
	l.log.Debug("dispatch", zap.String("type", string(ev.Type)), zap.Int("handlers", len(hs)))
	for _, h := range hs {
		h(ev)
	}
}

// Run dispatches events until the channel is closed or ctx is done.
func (l *Loop) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			l.Dispatch(ev)
		}
	}
}
