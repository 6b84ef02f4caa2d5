package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, &buf
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := captureLogger()

	enriched := EnrichLogger(logger, "run-123", "pipeline")
	require.NotNil(t, enriched)
	enriched.Info("hello")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-123")
	assert.Contains(t, out, "stage=pipeline")

	assert.Nil(t, EnrichLogger(nil, "run-123", "pipeline"))
}

func TestLogHelpers(t *testing.T) {
	logger, buf := captureLogger()

	LogRunStart(logger, "run-123", "email me when a row is added")
	LogStageStart(logger, "intent_extraction", 1)
	LogStageComplete(logger, "intent_extraction", 42.5)
	LogStageSkipped(logger, "custom_synthesis", "nothing to do")
	LogStageError(logger, "validation", errors.New("dangling edge"))
	LogRunComplete(logger, "run-123", 1234.5, 3)
	LogRunError(logger, "run-456", errors.New("boom"), 99.9, "validation")

	out := buf.String()
	assert.Contains(t, out, "pipeline run starting")
	assert.Contains(t, out, "request_len=28")
	assert.Contains(t, out, "stage starting")
	assert.Contains(t, out, "stage completed")
	assert.Contains(t, out, "stage skipped")
	assert.Contains(t, out, "reason=\"nothing to do\"")
	assert.Contains(t, out, "stage failed")
	assert.Contains(t, out, "dangling edge")
	assert.Contains(t, out, "pipeline run completed")
	assert.Contains(t, out, "nodes=3")
	assert.Contains(t, out, "pipeline run failed")
	assert.Contains(t, out, "last_stage=validation")
}

func TestLogHelpersNilLogger(t *testing.T) {
	// All helpers tolerate a nil logger.
	LogRunStart(nil, "run", "req")
	LogRunComplete(nil, "run", 0, 0)
	LogRunError(nil, "run", errors.New("x"), 0, "")
	LogStageStart(nil, "s", 1)
	LogStageComplete(nil, "s", 0)
	LogStageSkipped(nil, "s", "")
	LogStageError(nil, "s", errors.New("x"))
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	assert.GreaterOrEqual(t, elapsed(), 0.0)
}
