// Package noop implements a process plugin that exists as an
// implementation example: it passes every event through unchanged.
package noop

import (
	"context"

	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindProcess,
		Name: "noop",
		Load: func() (any, error) { return New(), nil },
	})
}

type processor struct{}

func New() *processor { return &processor{} }

func (processor) Process(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) (stream.Stream, error) {
	out := make(chan stream.Item, 1)
	out <- stream.Item{Event: e}
	close(out)
	return out, nil
}

var _ plugin.Processor = (*processor)(nil)
