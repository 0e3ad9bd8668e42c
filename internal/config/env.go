package config

import "github.com/caarlos0/env/v11"

// ApplyEnv overlays INFERD_* environment variables onto cfg. Variables that
// are unset leave the corresponding field untouched, so the precedence is
// file, then environment, then flags in main.
func ApplyEnv(cfg *Config) error {
	return env.Parse(cfg)
}
