package config

import (
	"fmt"
	"strings"
)

var accountingVariants = map[string]bool{
	"scaled_balance": true,
	"reserve_pegged": true,
	"price_scaled":   true,
}

// ValidateConfig rejects configurations the daemon could not run with. The
// engine re-validates the pool parameters on construction; the checks here
// catch the obviously broken file before any state is opened.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	pool := cfg.Pool
	if strings.TrimSpace(pool.ID) == "" {
		return fmt.Errorf("config: pool.ID required")
	}
	if strings.TrimSpace(pool.Asset) == "" {
		return fmt.Errorf("config: pool.Asset required")
	}
	if !accountingVariants[pool.Accounting] {
		return fmt.Errorf("config: unknown pool.Accounting %q", pool.Accounting)
	}
	p := pool.Params
	if p.CycleLengthSeconds <= 0 {
		return fmt.Errorf("config: pool.params.CycleLengthSeconds <= 0")
	}
	if p.RebalanceLengthSeconds <= 0 {
		return fmt.Errorf("config: pool.params.RebalanceLengthSeconds <= 0")
	}
	if p.HaltThresholdSeconds <= 0 {
		return fmt.Errorf("config: pool.params.HaltThresholdSeconds <= 0")
	}
	if p.OracleMaxAgeSeconds <= 0 {
		return fmt.Errorf("config: pool.params.OracleMaxAgeSeconds <= 0")
	}
	c := pool.Policy
	if c.Tier1Bps >= c.Tier2Bps || c.Tier2Bps >= 10_000 {
		return fmt.Errorf("config: pool.policy tiers must satisfy tier1 < tier2 < 10000")
	}
	if c.BaseBps > c.Rate1Bps || c.Rate1Bps > c.MaxBps {
		return fmt.Errorf("config: pool.policy rates must satisfy base <= rate1 <= max")
	}
	if c.LiquidationRatioBps >= c.HealthyRatioBps {
		return fmt.Errorf("config: pool.policy liquidation ratio must be below healthy ratio")
	}
	return nil
}
