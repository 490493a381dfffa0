package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath names the variable holding an explicit config file path.
const EnvConfigPath = "TWEETDASH_CONFIG"

// Load reads configuration with priority ENV > YAML > defaults.
// The YAML path comes from TWEETDASH_CONFIG, falling back to defaultPath.
// A missing default file is not an error; a missing explicit file is.
func Load(defaultPath string) (*Config, error) {
	var cfg Config

	path := os.Getenv(EnvConfigPath)
	explicitPath := path != ""
	if !explicitPath {
		path = defaultPath
	}

	if _, err := os.Stat(path); path != "" && err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
