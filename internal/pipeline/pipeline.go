// Package pipeline runs one named pipeline: merging its collectors,
// chaining its processors, and fanning every surviving event out to its
// forwarders, restarting the whole run on failure with bounded,
// full-jitter backoff.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/errorsx"
	"github.com/streamyforge/analyticsengine/internal/logger"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/stream"
)

// State is the lifecycle state of a Pipeline's most recent run.
type State string

const (
	StateCreated           State = "created"
	StateRunning           State = "running"
	StateCancelled         State = "cancelled"
	StateFailed            State = "failed"
	StateStoppedNoRestart  State = "stopped_no_restart"
)

// maxAttempts bounds how many times runOnce is attempted (the first try plus
// maxAttempts-1 retries with backoff) before the outer loop treats it as a
// failed run and decides whether to restart.
const maxAttempts = 5

// EngineVersion is stamped into every RunContext's resolved Info.
// cmd/analyticsengine assigns its own version variable to it before running
// any command; the default is fine for tests and ad hoc runs.
var EngineVersion = "dev"

// Pipeline runs the collect -> process -> forward chain named by one
// config.PipelineSpec.
type Pipeline struct {
	name string
	spec *config.PipelineSpec
	cfg  *config.AnalyticsConfig
	reg  *plugin.Registry
	log  *logger.Logger

	collectCfgs []*config.PluginConfig
	processCfgs []*config.PluginConfig
	forwardCfgs []*config.PluginConfig

	mu    sync.Mutex
	state State
}

// New builds a Pipeline for the named spec, resolving every stage it
// references against cfg. It returns an error if any referenced stage is
// missing, which should not happen for a cfg that has already passed
// config.Validate.
func New(name string, spec *config.PipelineSpec, cfg *config.AnalyticsConfig, reg *plugin.Registry, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Nop()
	}

	collectCfgs, err := resolveStages(spec.Collect, cfg.Collectors)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", name, err)
	}
	processCfgs, err := resolveStages(spec.Process, cfg.Processors)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", name, err)
	}
	forwardCfgs, err := resolveStages(spec.Forward, cfg.Forwarders)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", name, err)
	}

	return &Pipeline{
		name:        name,
		spec:        spec,
		cfg:         cfg,
		reg:         reg,
		log:         log.With("pipeline", name),
		collectCfgs: collectCfgs,
		processCfgs: processCfgs,
		forwardCfgs: forwardCfgs,
		state:       StateCreated,
	}, nil
}

func resolveStages(names []string, stages map[string]*config.PluginConfig) ([]*config.PluginConfig, error) {
	out := make([]*config.PluginConfig, 0, len(names))
	for _, n := range names {
		pc, ok := stages[n]
		if !ok {
			return nil, fmt.Errorf("undefined stage %q", n)
		}
		out = append(out, pc)
	}
	return out, nil
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string { return p.name }

// Enabled reports whether the pipeline's spec marks it enabled.
func (p *Pipeline) Enabled() bool { return p.spec.Enabled }

// State returns the pipeline's last observed lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run blocks, restarting the pipeline on failure, until ctx is cancelled or
// the pipeline is configured not to restart. It returns ctx.Err() on
// cancellation, nil if a run-once attempt exhausted cleanly with restart
// disabled, or the last error if the pipeline stopped after an
// unrecoverable failure with restart disabled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.setState(StateRunning)

	for {
		err := p.runOnceWithBackoff(ctx)

		if ctx.Err() != nil {
			p.setState(StateCancelled)
			return ctx.Err()
		}

		if err != nil {
			if !p.spec.Restart {
				p.log.Error(err, "pipeline stopped, restart disabled")
				p.setState(StateStoppedNoRestart)
				return err
			}
			p.log.Warn(fmt.Sprintf("pipeline run failed, restarting: %v", err))
			continue
		}

		// runOnce returned nil: every collector exhausted cleanly.
		if !p.spec.Restart {
			p.setState(StateStoppedNoRestart)
			return nil
		}
	}
}

// runOnceWithBackoff attempts runOnce up to maxAttempts times with
// exponential backoff and full jitter, giving up immediately (no further
// retries) the moment ctx is cancelled.
func (p *Pipeline) runOnceWithBackoff(ctx context.Context) error {
	attempt := 0
	eb := backoff.NewExponentialBackOff()
	// A randomization factor of 1 draws every delay uniformly from
	// [0, 2×current interval] (full jitter) instead of ±50% around it.
	eb.RandomizationFactor = 1
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, maxAttempts-1), ctx)

	operation := func() error {
		attempt++
		err := p.runOnce(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if attempt == 1 {
			p.log.Error(err, "run attempt failed")
		} else {
			p.log.Warn(fmt.Sprintf("run attempt %d failed: %v", attempt, err))
		}
		return err
	}

	return backoff.Retry(operation, bo)
}

// runOnce executes the pipeline exactly once: build per-stage RunContexts,
// merge the collectors, chain the processors, and forward every surviving
// event, until a collector stream closes cleanly or reports a failure.
func (p *Pipeline) runOnce(ctx context.Context) (err error) {
	runLog := p.log.With("run_id", uuid.NewString())

	shared := make(map[string]any)
	var sharedMu sync.Mutex

	var allContexts []*runtime.RunContext
	defer func() {
		sharedMu.Lock()
		for k := range shared {
			delete(shared, k)
		}
		sharedMu.Unlock()
		for _, rc := range allContexts {
			rc.ClearCache()
		}
	}()

	var (
		infoOnce sync.Once
		info     runtime.Info
	)
	resolveInfo := func() runtime.Info {
		infoOnce.Do(func() {
			info = runtime.ResolveInfo(p.cfg.HostConfig, EngineVersion)
		})
		return info
	}
	newCtx := func(pc *config.PluginConfig) *runtime.RunContext {
		rc := runtime.NewRunContext(pc, shared, &sharedMu, resolveInfo)
		allContexts = append(allContexts, rc)
		return rc
	}

	collectStreams := make([]stream.Stream, 0, len(p.collectCfgs))
	for _, cc := range p.collectCfgs {
		collector, lookupErr := p.reg.Collector(cc.Plugin())
		if lookupErr != nil {
			return lookupErr
		}
		s, collectErr := collector.Collect(ctx, newCtx(cc))
		if collectErr != nil {
			return errorsx.NewExecutionError(cc.Name(), collectErr)
		}
		collectStreams = append(collectStreams, tagCollectorErrors(ctx, cc.Name(), s))
	}

	events := stream.Merge(ctx, collectStreams...)

	for _, pc := range p.processCfgs {
		pc := pc
		proc, lookupErr := p.reg.Processor(pc.Plugin())
		if lookupErr != nil {
			return lookupErr
		}
		rc := newCtx(pc)
		events = stream.FlatMap(ctx, events, func(ctx context.Context, e *runtime.Event) (stream.Stream, error) {
			out, procErr := proc.Process(ctx, rc, e)
			if procErr != nil {
				runLog.Error(procErr, fmt.Sprintf("processor %q dropped an event", pc.Name()))
				return stream.Empty(), nil
			}
			return out, nil
		})
	}

	forwardCtxs := make(map[string]*runtime.RunContext, len(p.forwardCfgs))
	for _, fc := range p.forwardCfgs {
		forwardCtxs[fc.Name()] = newCtx(fc)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-events:
			if !ok {
				return nil
			}
			if item.Err != nil {
				return item.Err
			}
			p.forwardAll(ctx, runLog, forwardCtxs, item.Event)
		}
	}
}

// forwardAll invokes every forwarder concurrently on its own defensive copy
// of e and waits for all of them to finish. A forwarder's error is logged
// here and never returned, so one forwarder failing never cancels or
// blocks the others; that is why this uses a plain errgroup.Group and not
// errgroup.WithContext, which would cancel siblings on first error.
func (p *Pipeline) forwardAll(ctx context.Context, log *logger.Logger, forwardCtxs map[string]*runtime.RunContext, e *runtime.Event) {
	var g errgroup.Group
	for _, fc := range p.forwardCfgs {
		fc := fc
		rc := forwardCtxs[fc.Name()]
		fwd, lookupErr := p.reg.Forwarder(fc.Plugin())
		if lookupErr != nil {
			log.Error(lookupErr, fmt.Sprintf("forwarder %q unavailable", fc.Name()))
			continue
		}
		evtCopy := e.Copy()
		g.Go(func() error {
			if fwdErr := fwd.Forward(ctx, rc, evtCopy); fwdErr != nil && !errors.Is(fwdErr, context.Canceled) {
				log.Error(fwdErr, fmt.Sprintf("forwarder %q failed", fc.Name()))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// tagCollectorErrors rewrites every error Item a collector's stream yields
// during pulling into an errorsx.ExecutionError naming the collector stage,
// so the failure is discriminable via errors.As once it reaches the run
// loop, however many other collectors it was merged with. Events pass
// through untouched.
func tagCollectorErrors(ctx context.Context, name string, in stream.Stream) stream.Stream {
	out := make(chan stream.Item)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				if item.Err != nil {
					item = stream.Item{Err: errorsx.NewExecutionError(name, item.Err)}
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
