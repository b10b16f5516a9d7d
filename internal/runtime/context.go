package runtime

import "sync"

// PluginConfig is the view of a stage's configuration that a RunContext
// exposes to plugins. The config package's PluginConfig type satisfies this
// interface structurally; runtime never imports config to avoid a cycle.
type PluginConfig interface {
	// Name is the stage's identifier within its kind (the map key under
	// collectors/processors/forwarders in the analytics document).
	Name() string
	// Plugin is the registered plugin name this stage instance binds to.
	Plugin() string
	// Root returns the owning AnalyticsConfig, as `any` since runtime
	// cannot reference the config package's concrete type.
	Root() any
}

// RunContext is handed to a plugin on every call. One RunContext exists per
// (pipeline, stage instance) pair for the lifetime of a single pipeline run;
// it is discarded and rebuilt on the next run attempt.
type RunContext struct {
	cfg         PluginConfig
	cache       map[string]any
	cacheMu     sync.Mutex
	shared      map[string]any
	sharedMu    *sync.Mutex
	resolveInfo func() Info

	infoOnce sync.Once
	info     Info
}

// NewRunContext builds a RunContext. shared and sharedMu are provided by the
// pipeline and are the same map/mutex across every stage instance of one
// run, giving stages a pipeline-wide scratch space. resolveInfo is called at
// most once, lazily, the first time a plugin asks for Info().
func NewRunContext(cfg PluginConfig, shared map[string]any, sharedMu *sync.Mutex, resolveInfo func() Info) *RunContext {
	return &RunContext{
		cfg:         cfg,
		cache:       make(map[string]any),
		shared:      shared,
		sharedMu:    sharedMu,
		resolveInfo: resolveInfo,
	}
}

// Config returns the stage's own typed configuration.
func (rc *RunContext) Config() PluginConfig { return rc.cfg }

// PipelineConfig returns the root AnalyticsConfig this stage belongs to.
func (rc *RunContext) PipelineConfig() any { return rc.cfg.Root() }

// Cache returns a value previously stored for this stage instance under key.
func (rc *RunContext) Cache(key string) (any, bool) {
	rc.cacheMu.Lock()
	defer rc.cacheMu.Unlock()
	v, ok := rc.cache[key]
	return v, ok
}

// SetCache stores a value in this stage instance's private cache.
func (rc *RunContext) SetCache(key string, value any) {
	rc.cacheMu.Lock()
	defer rc.cacheMu.Unlock()
	rc.cache[key] = value
}

// ClearCache empties this stage instance's private cache. Called by the
// pipeline when a run terminates.
func (rc *RunContext) ClearCache() {
	rc.cacheMu.Lock()
	defer rc.cacheMu.Unlock()
	for k := range rc.cache {
		delete(rc.cache, k)
	}
}

// SharedCache returns a value from the cache shared by every stage of this
// pipeline run.
func (rc *RunContext) SharedCache(key string) (any, bool) {
	rc.sharedMu.Lock()
	defer rc.sharedMu.Unlock()
	v, ok := rc.shared[key]
	return v, ok
}

// SetSharedCache stores a value visible to every stage of this pipeline run.
func (rc *RunContext) SetSharedCache(key string, value any) {
	rc.sharedMu.Lock()
	defer rc.sharedMu.Unlock()
	rc.shared[key] = value
}

// Info returns the host/engine identity info, resolving and caching it on
// first use.
func (rc *RunContext) Info() Info {
	rc.infoOnce.Do(func() {
		if rc.resolveInfo != nil {
			rc.info = rc.resolveInfo()
		}
	})
	return rc.info
}
