package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermedhq/pulse/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Info("hello")
	record := decodeLine(t, &buf)
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "INFO", record["level"])

	// Debug is below the default info level.
	buf.Reset()
	log.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestStaticAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "pulse")),
	)

	log.Info("tagged")
	record := decodeLine(t, &buf)
	assert.Equal(t, "pulse", record["service"])
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	type requestIDKey struct{}

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			if v, ok := ctx.Value(requestIDKey{}).(string); ok {
				return slog.String("request_id", v), true
			}
			return slog.Attr{}, false
		}),
	)

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-42")
	log.InfoContext(ctx, "with request id")
	record := decodeLine(t, &buf)
	assert.Equal(t, "req-42", record["request_id"])

	// No value in context means no attribute.
	buf.Reset()
	log.InfoContext(context.Background(), "without request id")
	record = decodeLine(t, &buf)
	_, found := record["request_id"]
	assert.False(t, found)
}

func TestWithFormatPanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestEnvironmentPresets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithEnvironment("production", "pulse"),
		logger.WithOutput(&buf),
	)

	log.Info("prod")
	record := decodeLine(t, &buf)
	assert.Equal(t, "production", record["env"])
	assert.Equal(t, "pulse", record["service"])
}
