/*
File Name:  Config.go

YAML configuration loading. Falls back to the embedded default config
when the file passed to LoadConfig does not exist or is empty, so a
node can run with zero setup.
*/

package core

import (
	_ "embed" // Required for embedding the default config
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all node settings loaded from YAML.
type Config struct {
	Listen string `yaml:"Listen"` // Bind address for the datagram/TCP/ping sockets.

	LogLevel string `yaml:"LogLevel"` // trace, debug, info, warn, error. Overridden by the LOG env var if set.
	LogPaths bool   `yaml:"LogPaths"` // Append source file:line to each log line. Overridden by the PATHS env var if set.

	Catalog []string `yaml:"Catalog"` // Local file paths to serve.

	MetadataCachePath string `yaml:"MetadataCachePath"` // Pogreb database file caching FileMetadata by path+size+mtime.

	ControlPlaneListen string `yaml:"ControlPlaneListen"` // IP:Port for the read-only control plane. Empty disables it.
}

//go:embed "Config Default.yaml"
var defaultConfig []byte

// LoadConfig reads the YAML configuration file at filename. If the file
// does not exist or is empty, the embedded default config is used instead.
func LoadConfig(filename string) (config *Config, err error) {
	var configData []byte

	stats, statErr := os.Stat(filename)
	switch {
	case statErr != nil && os.IsNotExist(statErr):
		configData = defaultConfig
	case statErr != nil:
		return nil, statErr
	case stats.Size() == 0:
		configData = defaultConfig
	default:
		if configData, err = os.ReadFile(filename); err != nil {
			return nil, err
		}
	}

	config = &Config{}
	if err := yaml.Unmarshal(configData, config); err != nil {
		return nil, err
	}

	return config, nil
}
