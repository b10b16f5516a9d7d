package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/streamyforge/analyticsengine/internal/errorsx"
	"github.com/streamyforge/analyticsengine/internal/plugin"
)

// rawStage carries only the "plugin" selector out of a stage's YAML node;
// the remainder of the node is decoded separately once the plugin's schema
// is known.
type rawStage struct {
	Plugin string `yaml:"plugin"`
}

type rawPipeline struct {
	Collect yaml.Node `yaml:"collect"`
	Process yaml.Node `yaml:"process"`
	Forward yaml.Node `yaml:"forward"`
	Enabled *bool     `yaml:"enabled"`
	Restart *bool     `yaml:"restart"`
}

type rawDocument struct {
	Collectors map[string]yaml.Node  `yaml:"collectors"`
	Processors map[string]yaml.Node  `yaml:"processors"`
	Forwarders map[string]yaml.Node  `yaml:"forwarders"`
	Pipelines  map[string]rawPipeline `yaml:"pipelines"`
	// The wire format predates the engine's host-agnostic rename of this
	// field; the key on disk is still salt_config.
	HostConfig map[string]any `yaml:"salt_config"`
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// ParseFile reads path and parses it with Parse.
func ParseFile(path string, reg *plugin.Registry) (*AnalyticsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorsx.NewParseError(path, 0, err.Error(), err)
	}
	cfg, err := Parse(data, reg)
	if err != nil {
		if pe, ok := err.(*errorsx.ParseError); ok {
			pe.Path = path
			return nil, pe
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates an analytics document, binding each stage's
// configuration against the plugin it names in reg.
func Parse(data []byte, reg *plugin.Registry) (*AnalyticsConfig, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		line := 0
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			fmt.Sscanf(m[1], "%d", &line)
		}
		return nil, errorsx.NewParseError("", line, err.Error(), err)
	}

	cfg := &AnalyticsConfig{
		Collectors: make(map[string]*PluginConfig),
		Processors: make(map[string]*PluginConfig),
		Forwarders: make(map[string]*PluginConfig),
		Pipelines:  make(map[string]*PipelineSpec),
		HostConfig: raw.HostConfig,
	}

	if err := bindStages(cfg.Collectors, raw.Collectors, plugin.KindCollect, reg, cfg); err != nil {
		return nil, err
	}
	if err := bindStages(cfg.Processors, raw.Processors, plugin.KindProcess, reg, cfg); err != nil {
		return nil, err
	}
	if err := bindStages(cfg.Forwarders, raw.Forwarders, plugin.KindForward, reg, cfg); err != nil {
		return nil, err
	}

	for name, rp := range raw.Pipelines {
		spec, err := bindPipeline(name, rp)
		if err != nil {
			return nil, err
		}
		cfg.Pipelines[name] = spec
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindStages(dst map[string]*PluginConfig, src map[string]yaml.Node, kind plugin.Kind, reg *plugin.Registry, root *AnalyticsConfig) error {
	for name, node := range src {
		node := node
		var selector rawStage
		if err := node.Decode(&selector); err != nil {
			return errorsx.NewParseError("", node.Line, fmt.Sprintf("%s %q: %v", kind, name, err), err)
		}
		if selector.Plugin == "" {
			return errorsx.NewValidationError(string(kind)+"."+name, "missing required field \"plugin\"", nil)
		}
		if !reg.Exists(kind, selector.Plugin) {
			return errorsx.NewUnknownPluginError(string(kind), selector.Plugin, reg.Known(kind))
		}

		var schema any
		if sp, ok := reg.Schema(kind, selector.Plugin); ok {
			schema = sp.ConfigSchema()
			if err := node.Decode(schema); err != nil {
				return errorsx.NewParseError("", node.Line, fmt.Sprintf("%s %q: %v", kind, name, err), err)
			}
			if err := ValidateStruct(schema); err != nil {
				return errorsx.NewValidationError(fmt.Sprintf("%s.%s", kind, name), err.Error(), err)
			}
		}

		dst[name] = &PluginConfig{
			name:   name,
			kind:   kind,
			id:     selector.Plugin,
			schema: schema,
			root:   root,
		}
	}
	return nil
}

func bindPipeline(name string, rp rawPipeline) (*PipelineSpec, error) {
	collect, err := decodeStringList(rp.Collect)
	if err != nil {
		return nil, errorsx.NewValidationError("pipelines."+name+".collect", err.Error(), err)
	}
	process, err := decodeStringList(rp.Process)
	if err != nil {
		return nil, errorsx.NewValidationError("pipelines."+name+".process", err.Error(), err)
	}
	forward, err := decodeStringList(rp.Forward)
	if err != nil {
		return nil, errorsx.NewValidationError("pipelines."+name+".forward", err.Error(), err)
	}

	enabled := true
	if rp.Enabled != nil {
		enabled = *rp.Enabled
	}
	restart := true
	if rp.Restart != nil {
		restart = *rp.Restart
	}

	return &PipelineSpec{
		Name:    name,
		Collect: collect,
		Process: process,
		Forward: forward,
		Enabled: enabled,
		Restart: restart,
	}, nil
}

// decodeStringList accepts either a bare scalar ("disk") or a sequence of
// scalars (["disk", "elasticsearch"]) and normalizes both into a list. An
// empty/zero node yields a nil slice.
func decodeStringList(node yaml.Node) ([]string, error) {
	if node.IsZero() {
		return nil, nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %v", node.Kind)
	}
}
