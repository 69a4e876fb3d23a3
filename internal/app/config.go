package app

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/utils"
)

// Config holds every tunable named in the platform's configuration
// knobs, loaded from the environment with fallbacks tuned for a local
// demo cluster.
type Config struct {
	Port string

	MinClientsRequiredDefault int
	PrivacyEpsilonDefault     float64
	PrivacySensitivity        float64
	PrivacyBudgetCap          float64

	HeartbeatInactiveTimeout time.Duration
	LivenessSweepPeriod      time.Duration

	MiningWorkerPoolSize int
	StaleJobTimeout      time.Duration

	CacheSizePatterns    int
	CacheSizeBounds      int
	CacheSizeProjections int

	HeartbeatRateLimitPerMin int

	FederatedAutoRounds   bool
	FederatedAutoInterval time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port: utils.GetEnv("PORT", "8080", log),

		MinClientsRequiredDefault: utils.GetEnvAsInt("MIN_CLIENTS_REQUIRED_DEFAULT", 2, log),
		PrivacyEpsilonDefault:     utils.GetEnvAsFloat("PRIVACY_EPSILON_DEFAULT", 1.0, log),
		PrivacySensitivity:        utils.GetEnvAsFloat("PRIVACY_SENSITIVITY", 1.0, log),
		PrivacyBudgetCap:          utils.GetEnvAsFloat("PRIVACY_BUDGET_CAP", 10.0, log),

		HeartbeatInactiveTimeout: utils.GetEnvAsDuration("HEARTBEAT_INACTIVE_TIMEOUT", 60*time.Second, log),
		LivenessSweepPeriod:      utils.GetEnvAsDuration("LIVENESS_SWEEP_PERIOD", 30*time.Second, log),

		MiningWorkerPoolSize: utils.GetEnvAsInt("MINING_WORKER_POOL_SIZE", 4, log),
		StaleJobTimeout:      utils.GetEnvAsDuration("STALE_JOB_TIMEOUT", 30*time.Minute, log),

		CacheSizePatterns:    utils.GetEnvAsInt("CACHE_SIZE_PATTERNS", 2048, log),
		CacheSizeBounds:      utils.GetEnvAsInt("CACHE_SIZE_BOUNDS", 2048, log),
		CacheSizeProjections: utils.GetEnvAsInt("CACHE_SIZE_PROJECTIONS", 512, log),

		HeartbeatRateLimitPerMin: utils.GetEnvAsInt("HEARTBEAT_RATE_LIMIT_PER_MIN", 120, log),

		FederatedAutoRounds:   utils.GetEnvAsBool("FEDERATED_AUTO_ROUNDS", false, log),
		FederatedAutoInterval: utils.GetEnvAsDuration("FEDERATED_AUTO_ROUND_INTERVAL", 5*time.Minute, log),
	}

	if path := utils.GetEnv("CONFIG_FILE", "", log); path != "" {
		if err := applyConfigFileOverrides(&cfg, path); err != nil {
			if log != nil {
				log.Warn("failed to apply config file overrides, keeping environment/defaults", "path", path, "error", err)
			}
		}
	}

	return cfg
}

// fileOverrides mirrors a subset of Config that operators may want to
// pin in a checked-in config.yaml rather than per-process env vars.
// Any field left unset in the file keeps its environment/default value.
type fileOverrides struct {
	MinClientsRequiredDefault *int     `yaml:"min_clients_required_default"`
	PrivacyEpsilonDefault     *float64 `yaml:"privacy_epsilon_default"`
	PrivacySensitivity        *float64 `yaml:"privacy_sensitivity"`
	PrivacyBudgetCap          *float64 `yaml:"privacy_budget_cap"`
	MiningWorkerPoolSize      *int     `yaml:"mining_worker_pool_size"`
	HeartbeatRateLimitPerMin  *int     `yaml:"heartbeat_rate_limit_per_min"`
	FederatedAutoRounds       *bool    `yaml:"federated_auto_rounds"`
	CacheSizePatterns         *int     `yaml:"cache_size_patterns"`
	CacheSizeBounds           *int     `yaml:"cache_size_bounds"`
	CacheSizeProjections      *int     `yaml:"cache_size_projections"`
}

func applyConfigFileOverrides(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overrides fileOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return err
	}
	if overrides.MinClientsRequiredDefault != nil {
		cfg.MinClientsRequiredDefault = *overrides.MinClientsRequiredDefault
	}
	if overrides.PrivacyEpsilonDefault != nil {
		cfg.PrivacyEpsilonDefault = *overrides.PrivacyEpsilonDefault
	}
	if overrides.PrivacySensitivity != nil {
		cfg.PrivacySensitivity = *overrides.PrivacySensitivity
	}
	if overrides.PrivacyBudgetCap != nil {
		cfg.PrivacyBudgetCap = *overrides.PrivacyBudgetCap
	}
	if overrides.MiningWorkerPoolSize != nil {
		cfg.MiningWorkerPoolSize = *overrides.MiningWorkerPoolSize
	}
	if overrides.HeartbeatRateLimitPerMin != nil {
		cfg.HeartbeatRateLimitPerMin = *overrides.HeartbeatRateLimitPerMin
	}
	if overrides.FederatedAutoRounds != nil {
		cfg.FederatedAutoRounds = *overrides.FederatedAutoRounds
	}
	if overrides.CacheSizePatterns != nil {
		cfg.CacheSizePatterns = *overrides.CacheSizePatterns
	}
	if overrides.CacheSizeBounds != nil {
		cfg.CacheSizeBounds = *overrides.CacheSizeBounds
	}
	if overrides.CacheSizeProjections != nil {
		cfg.CacheSizeProjections = *overrides.CacheSizeProjections
	}
	return nil
}
