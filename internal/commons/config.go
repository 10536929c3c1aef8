package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"deligo/internal/config"
)

// LoadConfig reads a yaml config file on top of the env-based defaults.
// Fields absent from the file keep their Load() values.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}
