package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentProcesses, Output: &buf})

	l.Info("Process added", FieldProcess, "P1")
	l.Debug("hidden")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Process added", lines[0]["msg"])
	assert.Equal(t, ComponentProcesses, lines[0][FieldComponent])
	assert.Equal(t, "P1", lines[0][FieldProcess])
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Component: ComponentApp, Output: &buf}).WithComponent(ComponentHTTP)
	l.Warn("slow")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"component"`)))
	assert.Equal(t, ComponentHTTP, l.Component())
}

func TestPrettyAndTextFormatsWrite(t *testing.T) {
	for _, format := range []string{FormatPretty, FormatText, ""} {
		var buf bytes.Buffer
		New(Config{Format: format, Component: ComponentCLI, Output: &buf}).Info("hello")
		assert.Contains(t, buf.String(), "hello", format)
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	l := New(Config{Format: FormatJSON, Component: ComponentHTTP, Output: &bytes.Buffer{}})
	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, l, got)

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Component: ComponentHTTP, Output: &buf}))
	req := httptest.NewRequest(http.MethodPost, "/processes", nil)

	sl.LogHTTPEnd(context.Background(), req, http.StatusUnprocessableEntity, 3, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, http.StatusInternalServerError, 3, "10.0.0.1")
	sl.LogError(context.Background(), "save failed", errors.New("disk full"), OpCreate, NewFields().WithProcess("P1", "ACME"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "disk full", lines[2][FieldError])
	assert.Equal(t, OpCreate, lines[2][FieldOperation])
	assert.Equal(t, "P1", lines[2][FieldProcess])
}
