package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "twscraper.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"chatty", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.DebugLevel)

	log.WithField("handle", "nasa").
		WithError(errors.New("boom")).
		InfoWithFields("page fetched", map[string]interface{}{"posts": 200, "cursor": int64(42)})

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))

	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "page fetched", event["message"])
	assert.Equal(t, "twscraper", event["app"])
	assert.Equal(t, "nasa", event["handle"])
	assert.Equal(t, "boom", event["error"])
	assert.Equal(t, float64(200), event["posts"])
	assert.Equal(t, float64(42), event["cursor"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("a", 1)
	child.WithField("b", 2).Info("grandchild")
	child.Info("child")
	tl.Info("parent")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 3)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, msgs[0].Fields)
	assert.Equal(t, map[string]interface{}{"a": 1}, msgs[1].Fields)
	assert.Empty(t, msgs[2].Fields)
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger()

	LogPage(tl, "nasa", 1, 200, 99)
	LogCollection(tl, "nasa", 245, 3, "exhausted")
	tl.WithError(errors.New("nope")).Error("failed")

	assert.True(t, tl.HasMessage("Timeline page fetched"))
	assert.True(t, tl.HasMessage("Timeline collection finished"))

	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "nope", errs[0].Error)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	WithField("k", "v").Info("global")
	assert.True(t, tl.HasMessage("global"))
}
