package events

import (
	"context"
	"log/slog"
)

type HandlerFunc func(ctx context.Context, ev Raw) error

// Router dispatches decoded events by type. The same topic may carry event
// types this service does not care about; those are ignored.
type Router struct {
	handlers map[string]HandlerFunc
	log      *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{handlers: make(map[string]HandlerFunc), log: log}
}

func (r *Router) Handle(eventType string, h HandlerFunc) {
	r.handlers[eventType] = h
}

// Dispatch decodes msg and runs the matching handler. Undecodable and
// unrecognized messages are dropped without error.
func (r *Router) Dispatch(ctx context.Context, msg any) error {
	ev, ok := Decode(msg)
	if !ok {
		r.log.Debug("dropping undecodable event")
		return nil
	}

	h, ok := r.handlers[ev.Type()]
	if !ok {
		r.log.Debug("ignoring event type", slog.String("type", ev.Type()))
		return nil
	}
	return h(ctx, ev)
}
