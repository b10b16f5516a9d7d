// Package manager owns the lifecycle of every pipeline an analytics
// document defines: starting, stopping, and running them until the host
// shuts the engine down.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/logger"
	"github.com/streamyforge/analyticsengine/internal/pipeline"
	"github.com/streamyforge/analyticsengine/internal/plugin"
)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops, and runs every pipeline defined in an
// AnalyticsConfig.
type Manager struct {
	log *logger.Logger

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline
	tasks     map[string]*task
}

// New builds a Manager with one Pipeline per entry in cfg.Pipelines.
func New(cfg *config.AnalyticsConfig, reg *plugin.Registry, log *logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.Nop()
	}

	pipelines := make(map[string]*pipeline.Pipeline, len(cfg.Pipelines))
	for name, spec := range cfg.Pipelines {
		p, err := pipeline.New(name, spec, cfg, reg, log)
		if err != nil {
			return nil, fmt.Errorf("building pipeline %q: %w", name, err)
		}
		pipelines[name] = p
	}

	return &Manager{
		log:       log,
		pipelines: pipelines,
		tasks:     make(map[string]*task),
	}, nil
}

// StartPipeline starts the named pipeline in its own goroutine. It returns
// an error, rather than panicking, if the pipeline is unknown, disabled, or
// already running — the three states the original host's manager reports
// as human-readable reasons instead of exceptions.
func (m *Manager) StartPipeline(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pipelines[name]
	if !ok {
		return fmt.Errorf("pipeline %q is not defined", name)
	}
	if !p.Enabled() {
		return fmt.Errorf("pipeline %q is disabled", name)
	}
	if _, running := m.tasks[name]; running {
		return fmt.Errorf("pipeline %q is already running", name)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t := &task{cancel: cancel, done: done}
	m.tasks[name] = t

	go func() {
		defer close(done)
		err := p.Run(runCtx)

		// If the pipeline stopped on its own (e.g. restart disabled) rather
		// than via StopPipeline, deregister it here so a later
		// StartPipeline is not rejected as "already running".
		m.mu.Lock()
		if m.tasks[name] == t {
			delete(m.tasks, name)
		}
		m.mu.Unlock()

		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error(err, fmt.Sprintf("pipeline %q stopped", name))
		}
	}()

	return nil
}

// StopPipeline cancels the named pipeline's run and blocks until its
// in-flight forwards finish and its goroutine has returned.
func (m *Manager) StopPipeline(name string) error {
	m.mu.Lock()
	t, ok := m.tasks[name]
	if ok {
		delete(m.tasks, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("pipeline %q is not running", name)
	}

	t.cancel()
	<-t.done
	return nil
}

// StartPipelines starts every defined pipeline, logging (rather than
// failing) any that cannot be started — e.g. because it is disabled.
func (m *Manager) StartPipelines(ctx context.Context) {
	m.mu.Lock()
	names := make([]string, 0, len(m.pipelines))
	for name := range m.pipelines {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		if err := m.StartPipeline(ctx, name); err != nil {
			m.log.Warn(err.Error())
		}
	}
}

// StopPipelines stops every currently running pipeline and waits for each
// to fully drain its in-flight forwards before returning.
func (m *Manager) StopPipelines() {
	m.mu.Lock()
	names := make([]string, 0, len(m.tasks))
	for name := range m.tasks {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		if err := m.StopPipeline(name); err != nil {
			m.log.Warn(err.Error())
		}
	}
}

// Running reports whether the named pipeline currently has an active task.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[name]
	return ok
}

// Run starts every pipeline and blocks until ctx is cancelled, then stops
// every pipeline gracefully before returning.
func (m *Manager) Run(ctx context.Context) error {
	m.StartPipelines(ctx)
	<-ctx.Done()
	m.StopPipelines()
	return ctx.Err()
}
