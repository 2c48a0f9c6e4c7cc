/**
 * @description
 * This file handles configuration management for the reconciler-service.
 * It loads settings from environment variables, providing defaults for the
 * cron schedule and staleness thresholds.
 */
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the reconciler service.
type Config struct {
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	StalePaymentJobSchedule  string `mapstructure:"STALE_PAYMENT_JOB_SCHEDULE"`
	StalePaymentCutoffMins   int    `mapstructure:"STALE_PAYMENT_CUTOFF_MINUTES"`
	StalePaymentBatchLimit   int    `mapstructure:"STALE_PAYMENT_BATCH_LIMIT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("STALE_PAYMENT_JOB_SCHEDULE", "*/5 * * * *") // Every five minutes.
	viper.SetDefault("STALE_PAYMENT_CUTOFF_MINUTES", 15)
	viper.SetDefault("STALE_PAYMENT_BATCH_LIMIT", 100)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("STALE_PAYMENT_JOB_SCHEDULE")
	_ = viper.BindEnv("STALE_PAYMENT_CUTOFF_MINUTES")
	_ = viper.BindEnv("STALE_PAYMENT_BATCH_LIMIT")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.StalePaymentCutoffMins <= 0 {
		config.StalePaymentCutoffMins = 15
	}
	if config.StalePaymentBatchLimit <= 0 {
		config.StalePaymentBatchLimit = 100
	}

	return &config, nil
}
