package runtime_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/runtime"
)

type fakePluginConfig struct {
	name, plugin string
	root         any
}

func (f fakePluginConfig) Name() string   { return f.name }
func (f fakePluginConfig) Plugin() string { return f.plugin }
func (f fakePluginConfig) Root() any      { return f.root }

func TestEventCopyIsIndependent(t *testing.T) {
	e := runtime.NewEvent(map[string]any{"a": 1})
	cp := e.Copy()
	cp.Data["a"] = 2

	assert.Equal(t, 1, e.Data["a"])
	assert.Equal(t, 2, cp.Data["a"])
}

func TestRunContextCachesArePerInstance(t *testing.T) {
	shared := make(map[string]any)
	var mu sync.Mutex

	rc1 := runtime.NewRunContext(fakePluginConfig{name: "a"}, shared, &mu, func() runtime.Info { return runtime.Info{} })
	rc2 := runtime.NewRunContext(fakePluginConfig{name: "b"}, shared, &mu, func() runtime.Info { return runtime.Info{} })

	rc1.SetCache("k", 1)
	_, ok := rc2.Cache("k")
	require.False(t, ok)

	v, ok := rc1.Cache("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRunContextSharedCacheIsShared(t *testing.T) {
	shared := make(map[string]any)
	var mu sync.Mutex

	rc1 := runtime.NewRunContext(fakePluginConfig{name: "a"}, shared, &mu, func() runtime.Info { return runtime.Info{} })
	rc2 := runtime.NewRunContext(fakePluginConfig{name: "b"}, shared, &mu, func() runtime.Info { return runtime.Info{} })

	rc1.SetSharedCache("k", "v")
	v, ok := rc2.SharedCache("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestRunContextClearCache(t *testing.T) {
	shared := make(map[string]any)
	var mu sync.Mutex
	rc := runtime.NewRunContext(fakePluginConfig{name: "a"}, shared, &mu, func() runtime.Info { return runtime.Info{} })

	rc.SetCache("k", 1)
	rc.ClearCache()

	_, ok := rc.Cache("k")
	assert.False(t, ok)
}

func TestRunContextInfoResolvedOnce(t *testing.T) {
	shared := make(map[string]any)
	var mu sync.Mutex
	calls := 0
	rc := runtime.NewRunContext(fakePluginConfig{name: "a"}, shared, &mu, func() runtime.Info {
		calls++
		return runtime.Info{Host: runtime.HostInfo{ID: "h1"}}
	})

	first := rc.Info()
	second := rc.Info()

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestResolveInfoFallbackChain(t *testing.T) {
	info := runtime.ResolveInfo(map[string]any{"id": "explicit-id", "__role": "master"}, "1.0.0")
	assert.Equal(t, "explicit-id", info.Host.ID)
	assert.Equal(t, "master", info.Host.Role)
	assert.Equal(t, "1.0.0", info.Engine.Version)

	info = runtime.ResolveInfo(map[string]any{"grains": map[string]any{"fqdn": "host.example.com"}}, "1.0.0")
	assert.Equal(t, "host.example.com", info.Host.ID)

	info = runtime.ResolveInfo(nil, "1.0.0")
	assert.NotEmpty(t, info.Host.ID)
}
