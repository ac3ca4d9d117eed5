package logger

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	"github.com/elifred2022/bokadillo/internal/config"
)

func TestConfigFor(t *testing.T) {
	prod := configFor(config.Observability{LogLevel: "DEBUG", LogEncoding: "json"})
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, zapcore.DebugLevel, prod.Level.Level())
	assert.Equal(t, "ts", prod.EncoderConfig.TimeKey)

	dev := configFor(config.Observability{LogLevel: "loud", LogEncoding: "console"})
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, zapcore.InfoLevel, dev.Level.Level())
}

func TestNewTagsLogger(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger, err := New(lc, config.Config{
		Observability: config.Observability{ServiceName: "bokadillo", LogLevel: "warn", LogEncoding: "json"},
		Backend:       config.Backend{Driver: "memory"},
	})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestIgnoreConsoleSync(t *testing.T) {
	assert.NoError(t, ignoreConsoleSync(nil))
	assert.NoError(t, ignoreConsoleSync(fmt.Errorf("sync /dev/stdout: %w", syscall.EINVAL)))
	assert.Error(t, ignoreConsoleSync(errors.New("disk full")))
}
