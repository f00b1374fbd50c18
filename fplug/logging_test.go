package fplug

import (
	"context"
	"testing"

	"github.com/moffa90/go-fplug/fplugtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("received chunk", "data", "1081")
	logger.Info("connected", "address", testAddress)
	logger.Error("write failed", "kind", "temperature")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "1081", entries[0].ContextMap()["data"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, testAddress, entries[1].ContextMap()["address"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "write failed", entries[2].Message)
}

func TestZapLoggerNil(t *testing.T) {
	logger := NewZapLogger(nil)
	assert.NotPanics(t, func() { logger.Info("dropped") })
}

func TestControllerLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dev := fplugtest.NewDevice()
	ctrl := newConnected(t, dev, WithLogger(NewZapLogger(zap.New(core))))

	_, err := ctrl.Temperature(context.Background())
	require.NoError(t, err)

	assert.NotZero(t, logs.FilterMessage("connected").Len())
	assert.NotZero(t, logs.FilterMessage("sending request").FilterField(zap.String("kind", "temperature")).Len())
	assert.NotZero(t, logs.FilterMessage("received chunk").Len())
}

func TestControllerWithMockLogger(t *testing.T) {
	logger := &MockLogger{}
	ctrl := New(testAddress, fplugtest.NewDevice().Connector(), WithLogger(logger))
	require.NoError(t, ctrl.ConnectContext(context.Background()))
	ctrl.Disconnect()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Contains(t, logger.infoMsgs, "connecting")
	assert.Contains(t, logger.infoMsgs, "disconnected")
}
