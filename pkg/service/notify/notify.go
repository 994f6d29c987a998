package notify

import (
	"context"
)

// Sink delivers a notification. Implementations never fail the caller: every
// delivery problem is logged and swallowed.
type Sink interface {
	Notify(ctx context.Context, subject, markdown string)
}

// Nop discards every notification
type Nop struct{}

func (Nop) Notify(context.Context, string, string) {}

// Multi fans a notification out to every sink in order
type Multi []Sink

func (x Multi) Notify(ctx context.Context, subject, markdown string) {
	for _, sink := range x {
		if sink != nil {
			sink.Notify(ctx, subject, markdown)
		}
	}
}

// New returns a sink for the given sinks, skipping nil ones. With nothing left it
// returns Nop.
func New(sinks ...Sink) Sink {
	var active Multi
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	switch len(active) {
	case 0:
		return Nop{}
	case 1:
		return active[0]
	default:
		return active
	}
}
