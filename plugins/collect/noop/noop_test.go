package noop_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	noop "github.com/streamyforge/analyticsengine/plugins/collect/noop"
)

func TestCollectEmitsTicksUntilCancelled(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("noop", noop.New()))

	doc := []byte(`
collectors:
  src:
    plugin: noop
    interval: 10ms
forwarders:
  sink:
    plugin: noop
pipelines:
  events:
    collect: [src]
    forward: [sink]
`)
	cfg, err := config.Parse(doc, registryWithNoopForwarder(t, reg))
	require.NoError(t, err)

	pc := cfg.Collectors["src"]
	shared := make(map[string]any)
	var mu sync.Mutex
	rc := runtime.NewRunContext(pc, shared, &mu, func() runtime.Info { return runtime.Info{} })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s, err := noop.New().Collect(ctx, rc)
	require.NoError(t, err)

	count := 0
	for range s {
		count++
	}
	assert.Greater(t, count, 0)
}

func registryWithNoopForwarder(t *testing.T, reg *plugin.Registry) *plugin.Registry {
	t.Helper()
	require.NoError(t, reg.RegisterForwarder("noop", fakeForwarder{}))
	return reg
}

type fakeForwarder struct{}

func (fakeForwarder) Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error {
	return nil
}
