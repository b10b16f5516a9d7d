// Package disk implements a forward plugin that exists as an
// implementation example: it dumps collected events to disk, either as a
// single JSON-lines file or as one file per event.
package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/streamyforge/analyticsengine/internal/config"
	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
	"github.com/streamyforge/analyticsengine/internal/workerpool"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindForward,
		Name: "disk",
		Load: func() (any, error) { return New(), nil },
	})
}

// Config is the disk forwarder's schema.
type Config struct {
	Path         string `yaml:"path" validate:"required"`
	Filename     string `yaml:"filename"`
	PrettyPrint  bool   `yaml:"pretty_print"`
}

type forwarder struct {
	pool *workerpool.Pool

	mu      sync.Mutex
	seq     int64
	ensured map[string]bool
}

// New returns a disk forward plugin instance bounding concurrent disk
// writes to a single outstanding write at a time.
func New() *forwarder {
	return &forwarder{pool: workerpool.New(1), ensured: make(map[string]bool)}
}

func (forwarder) ConfigSchema() any { return &Config{} }

func (f *forwarder) Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error {
	pc, ok := rc.Config().(*config.PluginConfig)
	if !ok {
		return fmt.Errorf("disk forwarder: missing configuration")
	}
	cfg, ok := pc.Schema().(*Config)
	if !ok {
		return fmt.Errorf("disk forwarder: missing configuration")
	}

	indent := ""
	if cfg.PrettyPrint {
		indent = "  "
	}
	payload, err := json.MarshalIndent(struct {
		Data      map[string]any `json:"data"`
		Timestamp string         `json:"timestamp"`
	}{Data: e.Data, Timestamp: e.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00")}, "", indent)
	if err != nil {
		return err
	}

	_, err = workerpool.Offload(ctx, f.pool, func() (struct{}, error) {
		return struct{}{}, f.write(cfg, payload)
	})
	return err
}

func (f *forwarder) write(cfg *Config, payload []byte) error {
	if err := f.ensureDir(cfg.Path); err != nil {
		return err
	}

	if cfg.Filename != "" {
		dest := filepath.Join(cfg.Path, cfg.Filename)
		file, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = file.Write(append(payload, '\n'))
		return err
	}

	n := atomic.AddInt64(&f.seq, 1)
	dest := filepath.Join(cfg.Path, fmt.Sprintf("event-dump-%d.json", n))
	return os.WriteFile(dest, payload, 0o644)
}

func (f *forwarder) ensureDir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensured[path] {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	f.ensured[path] = true
	return nil
}

var (
	_ plugin.Forwarder      = (*forwarder)(nil)
	_ plugin.SchemaProvider = (*forwarder)(nil)
)
