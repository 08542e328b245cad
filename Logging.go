/*
File Name:  Logging.go

Structured logging setup. Level and path-annotation are controlled by
the LOG and PATHS environment variables, which take precedence over the
equivalent config fields so a node's verbosity can be changed without
editing its config file.
*/

package core

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnvFile loads a .env file into the process environment if present.
// Missing files are not an error; a node configured purely through real
// environment variables or the YAML config works the same way.
func LoadEnvFile(path string) {
	_ = godotenv.Load(path)
}

// InitLogging builds a new logrus logger configured from the LOG and
// PATHS environment variables, falling back to the supplied config values
// when the variables are unset.
func InitLogging(config *Config) (*logrus.Logger, error) {
	logger := logrus.New()

	level := config.LogLevel
	if env, ok := os.LookupEnv("LOG"); ok {
		level = env
	}
	if level == "" {
		level = "info"
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(parsed)

	paths := config.LogPaths
	if env, ok := os.LookupEnv("PATHS"); ok {
		paths = strings.EqualFold(env, "true")
	}

	formatter := &logrus.TextFormatter{}
	if paths {
		logger.SetReportCaller(true)
		formatter.CallerPrettyfier = func(f *runtime.Frame) (function string, file string) {
			return "", filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)
		}
	}
	logger.SetFormatter(formatter)

	return logger, nil
}
