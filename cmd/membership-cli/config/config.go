package config

import (
	"fmt"
	"membership-workflow/internal/registration"
	configlibsql "membership-workflow/lib/configuration/libsql"
	"membership-workflow/lib/configutil"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	BaseUrl string `json:"base_url" env:"MEMBERSHIP_BASE_URL"`
	// Mode is a preset, either "strict" or "demo".
	Mode string `json:"mode" env:"MEMBERSHIP_MODE"`
	// Verification and OnFailure override a single axis of the preset.
	Verification   string `json:"verification"`
	OnFailure      string `json:"on_failure"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"MEMBERSHIP_TIMEOUT_SECONDS"`
	// HttpDump is a directory that receives request/response dumps while
	// debug logging is on.
	HttpDump string              `json:"http_dump"`
	Journal  configlibsql.Struct `json:"journal"`
}

// Load reads `name` (searched for upwards from the working directory when it
// is a bare file name) and applies environment overrides. A missing file is
// not an error.
func Load(name string) (Config, error) {
	var cfg Config
	var err error
	if filepath.Base(name) == name {
		cfg, err = configutil.ReadRecursively[Config](name)
	} else {
		cfg, err = configutil.ReadConfig[Config](name)
	}
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = configutil.ParseEnv(&cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Policy() (registration.Policy, error) {
	policy, err := registration.ParsePolicy(c.Mode)
	if err != nil {
		return registration.Policy{}, err
	}
	if c.Verification != "" {
		policy.Verification, err = registration.ParseVerification(c.Verification)
		if err != nil {
			return registration.Policy{}, err
		}
	}
	if c.OnFailure != "" {
		policy.Failure, err = registration.ParseFailureMode(c.OnFailure)
		if err != nil {
			return registration.Policy{}, err
		}
	}
	return policy, nil
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
