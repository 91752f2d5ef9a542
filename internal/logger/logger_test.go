package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogger_FallsBackToGlobal(t *testing.T) {
	e := G(context.Background())
	assert.Equal(t, L.Logger, e.Logger)
}

func TestWithLogger(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("component", "merge")
	ctx := WithLogger(context.Background(), custom)

	got := G(ctx)
	assert.Equal(t, "merge", got.Data["component"])
}

func TestConfigure(t *testing.T) {
	prevLevel := L.Logger.GetLevel()
	prevFormatter := L.Logger.Formatter
	prevOut := L.Logger.Out
	t.Cleanup(func() {
		L.Logger.SetLevel(prevLevel)
		L.Logger.Formatter = prevFormatter
		L.Logger.SetOutput(prevOut)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	L.WithField("skill", "a").Debug("merged")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "merged", line["message"])
	assert.Equal(t, "a", line["skill"])

	assert.Error(t, Configure("loud", ""))
}
