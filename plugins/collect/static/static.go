// Package static implements a collect plugin that emits a fixed list of
// events, configured directly in the analytics document, then closes. It
// is useful for fixtures and for exercising pipelines deterministically.
package static

import (
	"context"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindCollect,
		Name: "static",
		Load: func() (any, error) { return New(), nil },
	})
}

// Config is the static collector's schema: a literal list of event data
// maps to emit, in order.
type Config struct {
	Events []map[string]any `yaml:"events" validate:"required,min=1"`
}

type collector struct{}

func New() *collector { return &collector{} }

func (collector) ConfigSchema() any { return &Config{} }

func (collector) Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error) {
	var events []map[string]any
	if pc, ok := rc.Config().(*config.PluginConfig); ok {
		if c, ok := pc.Schema().(*Config); ok {
			events = c.Events
		}
	}

	out := make(chan stream.Item, len(events))
	for _, data := range events {
		out <- stream.Item{Event: runtime.NewEvent(data)}
	}
	close(out)
	return out, nil
}

var (
	_ plugin.Collector      = (*collector)(nil)
	_ plugin.SchemaProvider = (*collector)(nil)
)
