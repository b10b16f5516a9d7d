// Package eventbus defines the host collaborator interface an event-bus
// style collector pulls from, plus an in-memory implementation used by
// tests and small standalone deployments.
package eventbus

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"
)

// BusEvent is one message observed on the host's event bus.
type BusEvent struct {
	Tag     string
	Stamp   time.Time
	Data    map[string]any
	RawData map[string]any
}

// Bus is the host collaborator a bus-backed collector depends on.
// Subscribe returns a channel of events whose tag matches any of patterns;
// the channel closes when ctx is cancelled.
type Bus interface {
	Subscribe(ctx context.Context, patterns []string) (<-chan BusEvent, error)
}

type subscription struct {
	patterns []string
	ch       chan BusEvent
}

// InMemoryBus is a process-local Bus, useful for tests and for running the
// engine standalone without a real host message bus.
type InMemoryBus struct {
	mu   sync.Mutex
	subs []*subscription
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

func (b *InMemoryBus) Subscribe(ctx context.Context, patterns []string) (<-chan BusEvent, error) {
	sub := &subscription{patterns: patterns, ch: make(chan BusEvent, 64)}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		close(sub.ch)
	}()

	return sub.ch, nil
}

// Publish delivers evt to every matching subscriber without blocking; a
// subscriber whose 64-event buffer is full does not receive it. A "__beacons_return"
// tagged event is treated as an envelope: each entry under its "beacons"
// key is unwrapped and republished as its own event, tagged
// "beacon/<name>", matching the host's beacon-return convention.
func (b *InMemoryBus) Publish(evt BusEvent) {
	if evt.Tag == "__beacons_return" {
		b.publishBeacons(evt)
		return
	}
	b.deliver(evt)
}

func (b *InMemoryBus) publishBeacons(evt BusEvent) {
	beacons, ok := evt.Data["beacons"].(map[string]any)
	if !ok {
		return
	}
	for name, payload := range beacons {
		data, _ := payload.(map[string]any)
		b.deliver(BusEvent{
			Tag:     "beacon/" + name,
			Stamp:   evt.Stamp,
			Data:    data,
			RawData: evt.RawData,
		})
	}
}

func (b *InMemoryBus) deliver(evt BusEvent) {
	b.mu.Lock()
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, sub := range subs {
		if !matchesAny(evt.Tag, sub.patterns) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// matchesAny reports whether tag matches any of the glob patterns, using
// "/" as the path separator the way the host's tag namespace does.
func matchesAny(tag string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, tag); ok {
			return true
		}
		if strings.HasSuffix(p, "*") && strings.HasPrefix(tag, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}
