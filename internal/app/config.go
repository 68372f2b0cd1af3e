package app

import (
	"os"

	"github.com/passiton/server/internal/infra/config"
)

// ConfigFileEnv names an explicit config file, overriding the search path.
const ConfigFileEnv = "PASSITON_CONFIG_FILE"

// LoadConfig loads application configuration.
func LoadConfig() (*config.Config, error) {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
