package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantJSON  bool
		wantDebug bool
	}{
		{"production logs json at info", Config{Environment: "production"}, true, false},
		{"development logs text at debug", Config{Environment: "development"}, false, true},
		{"level override", Config{Environment: "production", LogLevel: "debug"}, true, true},
		{"bad level is ignored", Config{Environment: "production", LogLevel: "loud"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&tt.cfg, &buf)

			logger.Debug("debug line")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)

			buf.Reset()
			logger.Info("info line")
			require.NotZero(t, buf.Len())

			var entry map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &entry) == nil
			assert.Equal(t, tt.wantJSON, isJSON)
			assert.Contains(t, buf.String(), "idverify")
		})
	}
}
