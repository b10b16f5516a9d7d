// Package stream provides the lazy, channel-based sequence primitives the
// pipeline runtime composes collectors and processors with: a fan-in Merge
// and a per-item expanding FlatMap, both cooperatively cancellable via
// context.Context.
package stream

import (
	"context"
	"sync"

	"github.com/streamyforge/analyticsengine/internal/runtime"
)

// Item is one value flowing through a Stream: either an Event or an error.
// A non-nil Err never appears alongside a non-nil Event.
type Item struct {
	Event *runtime.Event
	Err   error
}

// Stream is a read-only channel of Items. A closed Stream signals clean
// exhaustion; an Item with Err set signals a producer failure without
// closing the channel (the producer may still send more items, though in
// practice collectors close immediately after reporting a failure).
type Stream = <-chan Item

// Empty returns a Stream that is immediately closed.
func Empty() Stream {
	out := make(chan Item)
	close(out)
	return out
}

// Merge fans multiple input streams into one output stream. Items are
// forwarded in the order they arrive from any input; relative order across
// distinct inputs is not guaranteed. The output stream closes once every
// input has closed or ctx is cancelled.
func Merge(ctx context.Context, ins ...Stream) Stream {
	out := make(chan Item)
	go func() {
		defer close(out)
		var wg sync.WaitGroup
		wg.Add(len(ins))
		for _, in := range ins {
			in := in
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case item, ok := <-in:
						if !ok {
							return
						}
						select {
						case out <- item:
						case <-ctx.Done():
							return
						}
					}
				}
			}()
		}
		wg.Wait()
	}()
	return out
}

// FlatMap applies fn to every Event in in, flattening the Stream each call
// returns into the output, depth-first: all of one input item's outputs are
// forwarded before the next input item is read. An Item with Err set is
// passed through untouched without being handed to fn. If fn itself returns
// an error for a given event, that error is forwarded downstream as an Item
// and processing continues with the next input item.
func FlatMap(ctx context.Context, in Stream, fn func(context.Context, *runtime.Event) (Stream, error)) Stream {
	out := make(chan Item)
	go func() {
		defer close(out)
		for {
			var item Item
			var ok bool
			select {
			case <-ctx.Done():
				return
			case item, ok = <-in:
			}
			if !ok {
				return
			}

			if item.Err != nil {
				if !send(ctx, out, item) {
					return
				}
				continue
			}

			sub, err := fn(ctx, item.Event)
			if err != nil {
				if !send(ctx, out, Item{Err: err}) {
					return
				}
				continue
			}

			if !drain(ctx, out, sub) {
				return
			}
		}
	}()
	return out
}

func drain(ctx context.Context, out chan<- Item, in Stream) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case item, ok := <-in:
			if !ok {
				return true
			}
			if !send(ctx, out, item) {
				return false
			}
		}
	}
}

func send(ctx context.Context, out chan<- Item, item Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}
