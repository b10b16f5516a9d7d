// Package plugin defines the three plugin kinds an analytics pipeline is
// built from (collect, process, forward), the registry that binds plugin
// names to implementations, and the process-wide singleton the host agent
// populates at startup.
package plugin

import (
	"context"

	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

// Kind distinguishes the three plugin namespaces. Names are unique only
// within a Kind: a collect plugin and a forward plugin may share a name.
type Kind string

const (
	KindCollect  Kind = "collect"
	KindProcess  Kind = "process"
	KindForward  Kind = "forward"
)

// Collector produces a Stream of events for the lifetime of one pipeline
// run. It must honor ctx cancellation by closing its returned stream.
type Collector interface {
	Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error)
}

// Processor transforms one input event into zero or more output events.
// An error return means this input event's descendants are dropped; it
// does not abort the run.
type Processor interface {
	Process(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) (stream.Stream, error)
}

// Forwarder delivers one event to an external sink. Forwarders run
// concurrently and independently: a Forwarder's error is logged by the
// caller and never affects sibling forwarders.
type Forwarder interface {
	Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error
}

// SchemaProvider is implemented by plugins whose configuration is more than
// the bare "plugin" selector field. ConfigSchema returns a fresh pointer to
// a zero-valued config struct (optionally carrying validator tags) that the
// config package decodes the stage's YAML node into.
type SchemaProvider interface {
	ConfigSchema() any
}
