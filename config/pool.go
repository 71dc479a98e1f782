package config

import (
	"fmt"

	"synthpool/native/synth"
)

// PoolConfig converts the TOML pool section into the engine's construction
// parameters.
func (s PoolSection) PoolConfig() (synth.PoolConfig, error) {
	variant, err := parseAccounting(s.Accounting)
	if err != nil {
		return synth.PoolConfig{}, err
	}
	return synth.PoolConfig{
		ID:         s.ID,
		Asset:      s.Asset,
		OracleName: s.OracleName,
		Variant:    variant,
		Params: synth.Params{
			CycleLength:         s.Params.CycleLengthSeconds,
			RebalanceLength:     s.Params.RebalanceLengthSeconds,
			HaltThreshold:       s.Params.HaltThresholdSeconds,
			OracleMaxAge:        s.Params.OracleMaxAgeSeconds,
			PriceDeviationBps:   s.Params.PriceDeviationBps,
			SettleToleranceBps:  s.Params.SettleToleranceBps,
			LiquidationBonusBps: s.Params.LiquidationBonusBps,
			MaxLiquidationBps:   s.Params.MaxLiquidationBps,
			ProtocolFeeBps:      s.Params.ProtocolFeeBps,
		},
		Policy: synth.Policy{
			Curve: synth.InterestCurve{
				BaseBps:  s.Policy.BaseBps,
				Rate1Bps: s.Policy.Rate1Bps,
				MaxBps:   s.Policy.MaxBps,
				Tier1Bps: s.Policy.Tier1Bps,
				Tier2Bps: s.Policy.Tier2Bps,
			},
			HealthyRatioBps:     s.Policy.HealthyRatioBps,
			LiquidationRatioBps: s.Policy.LiquidationRatioBps,
		},
	}, nil
}

// AdminAddress parses the configured admin account, tolerating an empty
// value (administrative operations are then disabled).
func (s PoolSection) AdminAddress() (synth.Address, error) {
	if s.Admin == "" {
		return synth.Address{}, nil
	}
	return synth.ParseAddress(s.Admin)
}

func parseAccounting(name string) (synth.AccountingVariant, error) {
	switch name {
	case "", "scaled_balance":
		return synth.AccountingScaledBalance, nil
	case "reserve_pegged":
		return synth.AccountingReservePegged, nil
	case "price_scaled":
		return synth.AccountingPriceScaled, nil
	default:
		return 0, fmt.Errorf("config: unknown accounting variant %q", name)
	}
}
