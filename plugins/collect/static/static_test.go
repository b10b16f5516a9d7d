package static_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
	static "github.com/streamyforge/analyticsengine/plugins/collect/static"
)

type nopForwarder struct{}

func (nopForwarder) Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error {
	return nil
}

func TestCollectEmitsConfiguredEventsThenCloses(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("static", static.New()))
	require.NoError(t, reg.RegisterForwarder("sink", nopForwarder{}))

	doc := []byte(`
collectors:
  src:
    plugin: static
    events:
      - a: 1
      - a: 2
      - a: 3
forwarders:
  sink:
    plugin: sink
pipelines:
  events:
    collect: [src]
    forward: [sink]
`)
	cfg, err := config.Parse(doc, reg)
	require.NoError(t, err)

	shared := make(map[string]any)
	var mu sync.Mutex
	rc := runtime.NewRunContext(cfg.Collectors["src"], shared, &mu, func() runtime.Info { return runtime.Info{} })

	s, err := static.New().Collect(context.Background(), rc)
	require.NoError(t, err)

	var items []stream.Item
	for item := range s {
		items = append(items, item)
	}
	assert.Len(t, items, 3)
}
