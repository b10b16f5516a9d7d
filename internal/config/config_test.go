package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

type noopCollector struct{}

func (noopCollector) Collect(ctx context.Context, rc *runtime.RunContext) (stream.Stream, error) {
	return stream.Empty(), nil
}

type diskForwarder struct{}

func (diskForwarder) Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error {
	return nil
}

type diskSchema struct {
	Path string `yaml:"path" validate:"required"`
}

type schemaForwarder struct{ diskForwarder }

func (schemaForwarder) ConfigSchema() any { return &diskSchema{} }

func newTestRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.RegisterCollector("noop", noopCollector{}))
	require.NoError(t, reg.RegisterForwarder("noop", diskForwarder{}))
	require.NoError(t, reg.RegisterForwarder("disk", schemaForwarder{}))
	return reg
}

func TestParseBindsPluginSchema(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: disk
    path: /var/log/events.jsonl
pipelines:
  events:
    collect: main
    forward: out
`)

	cfg, err := config.Parse(doc, reg)
	require.NoError(t, err)

	fc := cfg.Forwarders["out"]
	require.NotNil(t, fc)
	schema, ok := fc.Schema().(*diskSchema)
	require.True(t, ok)
	assert.Equal(t, "/var/log/events.jsonl", schema.Path)
}

func TestParseNormalizesScalarToList(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: noop
pipelines:
  events:
    collect: main
    forward: out
`)

	cfg, err := config.Parse(doc, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, cfg.Pipelines["events"].Collect)
	assert.Equal(t, []string{"out"}, cfg.Pipelines["events"].Forward)
}

func TestParseDefaultsEnabledAndRestartTrue(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: noop
pipelines:
  events:
    collect: [main]
    forward: [out]
`)

	cfg, err := config.Parse(doc, reg)
	require.NoError(t, err)
	spec := cfg.Pipelines["events"]
	assert.True(t, spec.Enabled)
	assert.True(t, spec.Restart)
	assert.Empty(t, spec.Process)
}

func TestParseRejectsUnknownPlugin(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: bogus
forwarders:
  out:
    plugin: noop
pipelines:
  events:
    collect: [main]
    forward: [out]
`)

	_, err := config.Parse(doc, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestParseRejectsUndefinedStageReference(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: noop
pipelines:
  events:
    collect: [main]
    forward: [missing]
`)

	_, err := config.Parse(doc, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestParseRejectsMissingRequiredSchemaField(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: disk
pipelines:
  events:
    collect: [main]
    forward: [out]
`)

	_, err := config.Parse(doc, reg)
	assert.Error(t, err)
}

func TestParseWiresHostConfigBackPointer(t *testing.T) {
	reg := newTestRegistry(t)
	doc := []byte(`
collectors:
  main:
    plugin: noop
forwarders:
  out:
    plugin: noop
pipelines:
  events:
    collect: [main]
    forward: [out]
salt_config:
  id: host-01
  role: minion
`)

	cfg, err := config.Parse(doc, reg)
	require.NoError(t, err)
	assert.Equal(t, "host-01", cfg.HostConfig["id"])

	stage := cfg.Collectors["main"]
	root, ok := stage.Root().(*config.AnalyticsConfig)
	require.True(t, ok)
	assert.Same(t, cfg, root)
}
