package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelParsing(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "debug", level: "debug", want: logrus.DebugLevel},
		{name: "warn", level: "warn", want: logrus.WarnLevel},
		{name: "unknown falls back to info", level: "loud", want: logrus.InfoLevel},
		{name: "empty falls back to info", level: "", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(&bytes.Buffer{}, tt.level, FormatText)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", FormatJSON)

	logger.WithField("worker", "worker-1").Info("session created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session created", entry["msg"])
	assert.Equal(t, "worker-1", entry["worker"])
}

func TestDiscard_DropsOutput(t *testing.T) {
	logger := Discard()
	// Must not panic and must not write anywhere observable.
	logger.Error("ignored")
}
