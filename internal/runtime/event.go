// Package runtime provides the types plugins see at run time: the events
// flowing through a pipeline and the per-stage RunContext. It has no
// dependency on the plugin or config packages so that both can depend on it
// without creating an import cycle.
package runtime

import "time"

// Event is a single unit of data flowing through a pipeline. Data holds
// arbitrary structured fields; plugins are free to add, remove, or rewrite
// entries.
type Event struct {
	Data      map[string]any
	Timestamp time.Time
}

// NewEvent wraps data with the current UTC time.
func NewEvent(data map[string]any) *Event {
	return &Event{Data: data, Timestamp: time.Now().UTC()}
}

// Copy returns a defensive shallow copy: the Data map is new, but values
// already stored in it are not deep-cloned. Forwarders each receive their
// own copy so one forwarder mutating Data cannot affect another.
func (e *Event) Copy() *Event {
	if e == nil {
		return nil
	}
	cp := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		cp[k] = v
	}
	return &Event{Data: cp, Timestamp: e.Timestamp}
}
