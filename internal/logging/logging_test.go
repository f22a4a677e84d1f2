package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chama-api", "info", "production")

	ctx := With(WithLogger(context.Background(), logger), "request_id", "req-1")
	FromContext(ctx).Info("loan approved", "loan_id", "l-1")
	FromContext(ctx).Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "chama-api", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "l-1", line["loan_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("WARNING").String())
	assert.Equal(t, "INFO", parseLevel("whatever").String())
}
