package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLevelInheritance(t *testing.T) {
	Configure("text", LogLevelWarn, map[string]LogLevel{
		"access": LogLevelDebug,
	})
	defer Configure("text", LogLevelInfo, nil)

	var buf bytes.Buffer
	SetOutput(&buf)

	Get(AccessWorker).Debug("worker detail", "connect_point", "of:1/1")
	Get(Provision).Info("hidden")
	Get(Provision).Warn("shown")

	out := buf.String()
	assert.Contains(t, out, "[access.worker]")
	assert.Contains(t, out, "worker detail connect_point=of:1/1")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestJSONFormatAddsComponent(t *testing.T) {
	Configure("json", LogLevelInfo, nil)
	defer Configure("text", LogLevelInfo, nil)

	var buf bytes.Buffer
	SetOutput(&buf)

	Get(Northbound).Info("request", "status", 404)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec))
	assert.Equal(t, "nb", rec["component"])
	assert.Equal(t, "request", rec["msg"])
	assert.EqualValues(t, 404, rec["status"])
}

func TestWithRequest(t *testing.T) {
	Configure("text", LogLevelInfo, nil)
	var buf bytes.Buffer
	SetOutput(&buf)

	l := WithRequest(Get(Northbound), RequestAttrs{RequestID: "abc", Method: "POST"})
	l.Info("handled")

	out := buf.String()
	assert.Contains(t, out, "request_id=abc")
	assert.Contains(t, out, "method=POST")
	assert.NotContains(t, out, "path=")
}

func TestSetComponentLevel(t *testing.T) {
	Configure("text", LogLevelInfo, nil)
	SetComponentLevel(Events, LogLevelError)
	assert.Equal(t, LogLevelError, GetComponentLevels()[Events])

	ClearComponentLevel(Events)
	_, ok := GetComponentLevels()[Events]
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, GetDefaultLevel())
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel(""))
	assert.False(t, ValidLevel("verbose"))
}
