// Package noop implements a collect plugin that exists as an
// implementation example. It ticks on an interval, emitting one event per
// tick, until the pipeline run is cancelled.
package noop

import (
	"context"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindCollect,
		Name: "noop",
		Load: func() (any, error) { return New(), nil },
	})
}

// Config is the noop collector's schema.
type Config struct {
	Interval time.Duration
}

// UnmarshalYAML decodes the interval field as a Go duration string (e.g.
// "500ms", "1s") rather than the raw nanosecond integer time.Duration
// would otherwise require.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval == "" {
		c.Interval = time.Second
		return nil
	}
	d, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return err
	}
	c.Interval = d
	return nil
}

type collector struct{}

// New returns a noop collect plugin instance.
func New() *collector { return &collector{} }

func (collector) ConfigSchema() any { return &Config{Interval: time.Second} }

func (collector) Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error) {
	interval := time.Second
	if pc, ok := rc.Config().(*config.PluginConfig); ok {
		if c, ok := pc.Schema().(*Config); ok && c.Interval > 0 {
			interval = c.Interval
		}
	}

	out := make(chan stream.Item)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ticks++
				event := runtime.NewEvent(map[string]any{"ticks": ticks})
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
