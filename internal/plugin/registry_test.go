package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

type fakeCollector struct{}

func (fakeCollector) Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error) {
	return stream.Empty(), nil
}

type schemaCollector struct{ fakeCollector }

type schemaStruct struct {
	Path string `yaml:"path"`
}

func (schemaCollector) ConfigSchema() any { return &schemaStruct{} }

func TestRegisterAndLookupCollector(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("noop", fakeCollector{}))

	c, err := reg.Collector("noop")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestDuplicateRegistrationErrors(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("noop", fakeCollector{}))

	err := reg.RegisterCollector("noop", fakeCollector{})
	assert.Error(t, err)
}

func TestUnknownPluginListsKnownNames(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("noop", fakeCollector{}))
	require.NoError(t, reg.RegisterCollector("static", fakeCollector{}))

	_, err := reg.Collector("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noop")
	assert.Contains(t, err.Error(), "static")
}

func TestSchemaProviderDetected(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("withschema", schemaCollector{}))
	require.NoError(t, reg.RegisterCollector("noop", fakeCollector{}))

	sp, ok := reg.Schema(plugin.KindCollect, "withschema")
	require.True(t, ok)
	assert.IsType(t, &schemaStruct{}, sp.ConfigSchema())

	_, ok = reg.Schema(plugin.KindCollect, "noop")
	assert.False(t, ok)
}

func TestNamespacesAreDisjoint(t *testing.T) {
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("shared", fakeCollector{}))

	assert.True(t, reg.Exists(plugin.KindCollect, "shared"))
	assert.False(t, reg.Exists(plugin.KindForward, "shared"))
}

func TestLoaderFailureIsIsolated(t *testing.T) {
	reg := plugin.NewRegistry(nil)

	reg.LoadAll([]plugin.Loader{
		{Kind: plugin.KindCollect, Name: "broken", Load: func() (any, error) {
			return nil, errors.New("load failed")
		}},
		{Kind: plugin.KindCollect, Name: "panicky", Load: func() (any, error) {
			panic("boom")
		}},
		{Kind: plugin.KindCollect, Name: "good", Load: func() (any, error) {
			return fakeCollector{}, nil
		}},
	})

	assert.False(t, reg.Exists(plugin.KindCollect, "broken"))
	assert.False(t, reg.Exists(plugin.KindCollect, "panicky"))
	assert.True(t, reg.Exists(plugin.KindCollect, "good"))
}
