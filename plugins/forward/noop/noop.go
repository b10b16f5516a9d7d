// Package noop implements a forward plugin that exists as an
// implementation example: it discards every event it receives.
package noop

import (
	"context"

	"github.com/streamyforge/analyticsengine/internal/plugin"
	"github.com/streamyforge/analyticsengine/internal/runtime"
)

func init() {
	plugin.RegisterLoader(plugin.Loader{
		Kind: plugin.KindForward,
		Name: "noop",
		Load: func() (any, error) { return New(), nil },
	})
}

type forwarder struct{}

func New() *forwarder { return &forwarder{} }

func (forwarder) Forward(ctx context.Context, rc *runtime.RunContext, e *runtime.Event) error {
	return nil
}

var _ plugin.Forwarder = (*forwarder)(nil)
