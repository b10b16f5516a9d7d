// Package config parses and validates the analytics document: the YAML
// file naming which plugins back which stages and how stages wire into
// pipelines. A stage's configuration shape is not known statically — it is
// determined at load time by looking up the named plugin in a
// *plugin.Registry and decoding into whatever schema that plugin declares.
package config

import (
	"github.com/streamyforge/analyticsengine/internal/plugin"
)

// PluginConfig is one stage instance: a name, the plugin it binds to, and
// the plugin-specific schema (if the plugin declared one via
// plugin.SchemaProvider) decoded from the stage's YAML node.
type PluginConfig struct {
	name   string
	kind   plugin.Kind
	id     string
	schema any
	root   *AnalyticsConfig
}

func (c *PluginConfig) Name() string   { return c.name }
func (c *PluginConfig) Plugin() string { return c.id }
func (c *PluginConfig) Root() any      { return c.root }

// Schema returns the decoded plugin-specific configuration, or nil if the
// plugin declared none.
func (c *PluginConfig) Schema() any { return c.schema }

// PipelineSpec describes one named pipeline: the ordered collectors merged
// at its head, the processor chain applied to every collected event, and
// the forwarders every surviving event fans out to.
type PipelineSpec struct {
	Name    string
	Collect []string
	Process []string
	Forward []string
	Enabled bool
	Restart bool
}

// AnalyticsConfig is the fully parsed and validated analytics document.
type AnalyticsConfig struct {
	Collectors map[string]*PluginConfig
	Processors map[string]*PluginConfig
	Forwarders map[string]*PluginConfig
	Pipelines  map[string]*PipelineSpec
	HostConfig map[string]any
}
