package core

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitLoggingDefaultsToInfo(t *testing.T) {
	os.Unsetenv("LOG")
	os.Unsetenv("PATHS")

	logger, err := InitLogging(&Config{LogLevel: ""})
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestInitLoggingEnvOverridesConfig(t *testing.T) {
	t.Setenv("LOG", "debug")

	logger, err := InitLogging(&Config{LogLevel: "error"})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestInitLoggingRejectsInvalidLevel(t *testing.T) {
	os.Unsetenv("LOG")

	_, err := InitLogging(&Config{LogLevel: "not-a-level"})
	require.Error(t, err)
}
