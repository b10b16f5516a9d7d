package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/streamyforge/analyticsengine/internal/logger"
)

// Loader is how a plugin package advertises itself to the process-wide
// registry, the Go equivalent of the host platform's extension-point
// mechanism: there being no dynamic package discovery in Go, plugin
// packages call RegisterLoader from an init() function, and Instance()
// resolves every pending loader the first time it is called.
type Loader struct {
	Kind Kind
	Name string
	Load func() (any, error)
}

var (
	pendingMu sync.Mutex
	pending   []Loader
)

// RegisterLoader adds l to the set of loaders Instance() resolves on its
// first call. Safe to call from an init() function.
func RegisterLoader(l Loader) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pending = append(pending, l)
}

type collectEntry struct {
	collector Collector
	schema    SchemaProvider
}
type processEntry struct {
	processor Processor
	schema    SchemaProvider
}
type forwardEntry struct {
	forwarder Forwarder
	schema    SchemaProvider
}

// Registry binds plugin names to implementations within each of the three
// kinds. A Registry is safe for concurrent use after construction.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]collectEntry
	processors map[string]processEntry
	forwarders map[string]forwardEntry
	log        *logger.Logger
}

// NewRegistry builds an empty Registry. Use RegisterCollector/
// RegisterProcessor/RegisterForwarder to populate it explicitly — this is
// the path tests and small hosts use. Use Instance for the process-wide
// singleton that self-populates from RegisterLoader entries.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		collectors: make(map[string]collectEntry),
		processors: make(map[string]processEntry),
		forwarders: make(map[string]forwardEntry),
		log:        log,
	}
}

var (
	instanceOnce sync.Once
	instance     *Registry
)

// Instance returns the process-wide Registry, building it on first call by
// resolving every Loader registered so far. Any Loader whose Load function
// panics or returns an error is logged and skipped; it never prevents the
// rest of the registry from loading.
func Instance(log *logger.Logger) *Registry {
	instanceOnce.Do(func() {
		instance = NewRegistry(log)
		pendingMu.Lock()
		loaders := append([]Loader(nil), pending...)
		pendingMu.Unlock()
		instance.LoadAll(loaders)
	})
	return instance
}

// LoadAll resolves each Loader, isolating failures the same way Instance
// does. Exported so tests can exercise load-failure isolation without
// touching the package-level pending list or process-wide singleton.
func (r *Registry) LoadAll(loaders []Loader) {
	for _, l := range loaders {
		r.loadOne(l)
	}
}

func (r *Registry) loadOne(l Loader) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(fmt.Errorf("%v", rec), fmt.Sprintf("plugin loader %s/%s panicked, skipping", l.Kind, l.Name))
		}
	}()

	p, err := l.Load()
	if err != nil {
		r.log.Error(err, fmt.Sprintf("plugin loader %s/%s failed, skipping", l.Kind, l.Name))
		return
	}

	switch l.Kind {
	case KindCollect:
		c, ok := p.(Collector)
		if !ok {
			r.log.Error(fmt.Errorf("loaded value does not implement Collector"), fmt.Sprintf("plugin %s/%s", l.Kind, l.Name))
			return
		}
		if err := r.RegisterCollector(l.Name, c); err != nil {
			r.log.Error(err, fmt.Sprintf("registering collector %s", l.Name))
		}
	case KindProcess:
		proc, ok := p.(Processor)
		if !ok {
			r.log.Error(fmt.Errorf("loaded value does not implement Processor"), fmt.Sprintf("plugin %s/%s", l.Kind, l.Name))
			return
		}
		if err := r.RegisterProcessor(l.Name, proc); err != nil {
			r.log.Error(err, fmt.Sprintf("registering processor %s", l.Name))
		}
	case KindForward:
		f, ok := p.(Forwarder)
		if !ok {
			r.log.Error(fmt.Errorf("loaded value does not implement Forwarder"), fmt.Sprintf("plugin %s/%s", l.Kind, l.Name))
			return
		}
		if err := r.RegisterForwarder(l.Name, f); err != nil {
			r.log.Error(err, fmt.Sprintf("registering forwarder %s", l.Name))
		}
	default:
		r.log.Error(fmt.Errorf("unknown plugin kind %q", l.Kind), l.Name)
	}
}

func schemaOf(p any) SchemaProvider {
	if sp, ok := p.(SchemaProvider); ok {
		return sp
	}
	return nil
}

func (r *Registry) RegisterCollector(name string, c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.collectors[name]; exists {
		return fmt.Errorf("collect plugin %q already registered", name)
	}
	r.collectors[name] = collectEntry{collector: c, schema: schemaOf(c)}
	return nil
}

func (r *Registry) RegisterProcessor(name string, p Processor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processors[name]; exists {
		return fmt.Errorf("process plugin %q already registered", name)
	}
	r.processors[name] = processEntry{processor: p, schema: schemaOf(p)}
	return nil
}

func (r *Registry) RegisterForwarder(name string, f Forwarder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forwarders[name]; exists {
		return fmt.Errorf("forward plugin %q already registered", name)
	}
	r.forwarders[name] = forwardEntry{forwarder: f, schema: schemaOf(f)}
	return nil
}

func (r *Registry) Collector(name string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.collectors[name]
	if !ok {
		return nil, fmt.Errorf("unknown collect plugin %q (known: %v)", name, sortedKeys(r.collectors))
	}
	return e.collector, nil
}

func (r *Registry) Processor(name string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.processors[name]
	if !ok {
		return nil, fmt.Errorf("unknown process plugin %q (known: %v)", name, sortedKeys(r.processors))
	}
	return e.processor, nil
}

func (r *Registry) Forwarder(name string) (Forwarder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.forwarders[name]
	if !ok {
		return nil, fmt.Errorf("unknown forward plugin %q (known: %v)", name, sortedKeys(r.forwarders))
	}
	return e.forwarder, nil
}

// Schema returns the optional config schema factory registered for name
// under kind, or (nil, false) if the plugin has no custom schema.
func (r *Registry) Schema(kind Kind, name string) (SchemaProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case KindCollect:
		e, ok := r.collectors[name]
		return e.schema, ok && e.schema != nil
	case KindProcess:
		e, ok := r.processors[name]
		return e.schema, ok && e.schema != nil
	case KindForward:
		e, ok := r.forwarders[name]
		return e.schema, ok && e.schema != nil
	default:
		return nil, false
	}
}

// Exists reports whether a plugin named name is registered under kind.
func (r *Registry) Exists(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case KindCollect:
		_, ok := r.collectors[name]
		return ok
	case KindProcess:
		_, ok := r.processors[name]
		return ok
	case KindForward:
		_, ok := r.forwarders[name]
		return ok
	default:
		return false
	}
}

// Known returns the sorted list of registered plugin names for kind, used
// to build helpful "unknown plugin" error messages.
func (r *Registry) Known(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case KindCollect:
		return sortedKeys(r.collectors)
	case KindProcess:
		return sortedKeys(r.processors)
	case KindForward:
		return sortedKeys(r.forwarders)
	default:
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
