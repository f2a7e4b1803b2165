package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-router/internal/common/logging"
)

type capturedEntry struct {
	level  string
	msg    string
	fields []logging.Field
}

type captureLogger struct {
	entries []capturedEntry
}

func (c *captureLogger) Debug(msg string, fields ...logging.Field) {
	c.entries = append(c.entries, capturedEntry{"debug", msg, fields})
}

func (c *captureLogger) Info(msg string, fields ...logging.Field) {
	c.entries = append(c.entries, capturedEntry{"info", msg, fields})
}

func (c *captureLogger) Warn(msg string, fields ...logging.Field) {
	c.entries = append(c.entries, capturedEntry{"warn", msg, fields})
}

func (c *captureLogger) Error(msg string, err error, fields ...logging.Field) {
	c.entries = append(c.entries, capturedEntry{"error", msg, fields})
}

func (c *captureLogger) WithFields(fields ...logging.Field) logging.Logger { return c }

func fieldValue(t *testing.T, fields []logging.Field, key string) interface{} {
	t.Helper()
	for _, f := range fields {
		if f.Key == key {
			return f.Value
		}
	}
	t.Fatalf("field %q not logged", key)
	return nil
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success", http.StatusOK, "info"},
		{"client error", http.StatusNotFound, "warn"},
		{"server error", http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &captureLogger{}
			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/ten-1/policy", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			require.Len(t, logger.entries, 1)
			entry := logger.entries[0]
			assert.Equal(t, tt.wantLevel, entry.level)
			assert.Equal(t, tt.status, fieldValue(t, entry.fields, "status"))
			assert.Equal(t, "/api/v1/tenants/ten-1/policy", fieldValue(t, entry.fields, "path"))
			assert.Equal(t, http.MethodGet, fieldValue(t, entry.fields, "method"))
		})
	}
}

func TestRequestLogger_DefaultsStatusToOK(t *testing.T) {
	logger := &captureLogger{}
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) // implicit 200
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, logger.entries, 1)
	assert.Equal(t, http.StatusOK, fieldValue(t, logger.entries[0].fields, "status"))
}
