// Package bus implements a collect plugin that exists as an implementation
// example: it subscribes to the host event bus for a set of tag glob
// patterns and emits one event per bus message received.
package bus

import (
	"context"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/eventbus"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindCollect,
		Name: "bus",
		Load: func() (any, error) { return New(defaultBus), nil },
	})
}

var defaultBus = eventbus.NewInMemoryBus()

// DefaultBus returns the in-memory bus the process-wide "bus" collect
// plugin subscribes through. A host publishes onto it directly, or wires
// its own transport-backed eventbus.Bus and constructs the plugin with New
// instead of going through the registry's default loader.
func DefaultBus() *eventbus.InMemoryBus { return defaultBus }

// Config is the bus collector's schema: the tag glob patterns to subscribe to.
type Config struct {
	Tags []string `yaml:"tags" validate:"required,min=1"`
}

type collector struct {
	bus eventbus.Bus
}

// New returns a bus collect plugin instance that subscribes through bus.
func New(bus eventbus.Bus) *collector {
	return &collector{bus: bus}
}

func (collector) ConfigSchema() any { return &Config{} }

func (c *collector) Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error) {
	var tags []string
	if pc, ok := rc.Config().(*config.PluginConfig); ok {
		if cfg, ok := pc.Schema().(*Config); ok {
			tags = cfg.Tags
		}
	}

	sub, err := c.bus.Subscribe(ctx, tags)
	if err != nil {
		return nil, err
	}

	out := make(chan stream.Item)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sub:
				if !ok {
					return
				}
				event := runtime.NewEvent(map[string]any{
					"tag":  evt.Tag,
					"data": evt.Data,
				})
				if !evt.Stamp.IsZero() {
					event.Timestamp = evt.Stamp
				}
				select {
				case out <- stream.Item{Event: event}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var (
	_ plugin.Collector      = (*collector)(nil)
	_ plugin.SchemaProvider = (*collector)(nil)
)
