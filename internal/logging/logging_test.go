package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/annuaire/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("kind", "annuaire").Info("imported")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "imported", line["msg"])
	assert.Equal(t, "annuaire", line["kind"])
}

func TestNewUnknownLevel(t *testing.T) {
	log := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
