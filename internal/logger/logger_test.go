package logger_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamyforge/analyticsengine/internal/logger"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "info", Writer: &buf})

	log.Info("pipeline started")

	assert.Contains(t, buf.String(), `"message":"pipeline started"`)
}

func TestWithAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "info", Writer: &buf}).With("pipeline", "events")

	log.Info("tick")

	assert.Contains(t, buf.String(), `"pipeline":"events"`)
}

func TestErrorIncludesErrField(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "info", Writer: &buf})

	log.Error(errors.New("boom"), "forward failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestDebugSuppressedAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "warn", Writer: &buf})

	log.Debug("noisy")
	log.Info("also noisy")

	assert.Empty(t, buf.String())
}
