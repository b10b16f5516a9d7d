package noop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamyforge/analyticsengine/internal/runtime"
	noop "github.com/streamyforge/analyticsengine/plugins/forward/noop"
)

func TestForwardDiscardsEvent(t *testing.T) {
	e := runtime.NewEvent(map[string]any{"n": 1})
	err := noop.New().Forward(context.Background(), nil, e)
	require.NoError(t, err)
}
