package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/streamyforge/analyticsengine/internal/errorsx"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// ValidateStruct runs struct-tag validation (go-playground/validator) over
// a plugin's decoded schema, the same two-pass decode-then-validate shape
// every other stage config in the engine follows.
func ValidateStruct(schema any) error {
	if schema == nil {
		return nil
	}
	if err := validatorInstance().Struct(schema); err != nil {
		return err
	}
	return nil
}

// Validate checks cross-references within an AnalyticsConfig: every
// pipeline must name at least one collector and one forwarder, and every
// name it references must exist in the corresponding stage map.
func Validate(cfg *AnalyticsConfig) error {
	names := make([]string, 0, len(cfg.Pipelines))
	for name := range cfg.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := cfg.Pipelines[name]
		if len(spec.Collect) == 0 {
			return errorsx.NewValidationError(fmt.Sprintf("pipelines.%s.collect", name), "must name at least one collector", nil)
		}
		if len(spec.Forward) == 0 {
			return errorsx.NewValidationError(fmt.Sprintf("pipelines.%s.forward", name), "must name at least one forwarder", nil)
		}
		if err := checkRefs(name, "collect", spec.Collect, cfg.Collectors); err != nil {
			return err
		}
		if err := checkRefs(name, "process", spec.Process, cfg.Processors); err != nil {
			return err
		}
		if err := checkRefs(name, "forward", spec.Forward, cfg.Forwarders); err != nil {
			return err
		}
	}
	return nil
}

func checkRefs(pipeline, section string, refs []string, stages map[string]*PluginConfig) error {
	for _, ref := range refs {
		if _, ok := stages[ref]; !ok {
			return errorsx.NewValidationError(
				fmt.Sprintf("pipelines.%s.%s", pipeline, section),
				fmt.Sprintf("references undefined stage %q", ref),
				nil,
			)
		}
	}
	return nil
}
