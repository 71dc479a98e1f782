package config

// PoolSection describes one synthetic pool the daemon hosts.
type PoolSection struct {
	ID            string `toml:"ID"`
	Asset         string `toml:"Asset"`
	ReserveSymbol string `toml:"ReserveSymbol"`
	OracleName    string `toml:"OracleName"`
	// Accounting selects the token bookkeeping variant: scaled_balance,
	// reserve_pegged or price_scaled.
	Accounting string `toml:"Accounting"`
	Admin      string `toml:"Admin"`
	// GenesisPrice seeds the manual oracle feed on first start, in reserve
	// units per synthetic unit scaled by 1e18.
	GenesisPrice string `toml:"GenesisPrice"`

	Params ParamsSection `toml:"params"`
	Policy PolicySection `toml:"policy"`
	Pauses Pauses        `toml:"pauses"`
	Quota  Quota         `toml:"quota"`
}

// ParamsSection carries the cycle timing and settlement tolerances.
type ParamsSection struct {
	CycleLengthSeconds     int64  `toml:"CycleLengthSeconds"`
	RebalanceLengthSeconds int64  `toml:"RebalanceLengthSeconds"`
	HaltThresholdSeconds   int64  `toml:"HaltThresholdSeconds"`
	OracleMaxAgeSeconds    int64  `toml:"OracleMaxAgeSeconds"`
	PriceDeviationBps      uint64 `toml:"PriceDeviationBps"`
	SettleToleranceBps     uint64 `toml:"SettleToleranceBps"`
	LiquidationBonusBps    uint64 `toml:"LiquidationBonusBps"`
	MaxLiquidationBps      uint64 `toml:"MaxLiquidationBps"`
	ProtocolFeeBps         uint64 `toml:"ProtocolFeeBps"`
}

// PolicySection carries the interest curve and collateral ratios.
type PolicySection struct {
	BaseBps             uint64 `toml:"BaseBps"`
	Rate1Bps            uint64 `toml:"Rate1Bps"`
	MaxBps              uint64 `toml:"MaxBps"`
	Tier1Bps            uint64 `toml:"Tier1Bps"`
	Tier2Bps            uint64 `toml:"Tier2Bps"`
	HealthyRatioBps     uint64 `toml:"HealthyRatioBps"`
	LiquidationRatioBps uint64 `toml:"LiquidationRatioBps"`
}

// Pauses toggles administrative kill switches per module.
type Pauses struct {
	Synth bool `toml:"Synth"`
}

// Quota defines rate limits for gateway interactions on a per-address basis.
type Quota struct {
	MaxRequestsPerMin  uint32 `toml:"MaxRequestsPerMin"`
	MaxReservePerEpoch uint64 `toml:"MaxReservePerEpoch"`
	EpochSeconds       uint32 `toml:"EpochSeconds"`
}

// DefaultPoolSection returns the template written into a fresh config file.
func DefaultPoolSection() PoolSection {
	return PoolSection{
		ID:            "tsla-usd",
		Asset:         "sTSLA",
		ReserveSymbol: "USD",
		OracleName:    "manual",
		Accounting:    "scaled_balance",
		GenesisPrice:  "100000000000000000000",
		Params: ParamsSection{
			CycleLengthSeconds:     86_400,
			RebalanceLengthSeconds: 3_600,
			HaltThresholdSeconds:   21_600,
			OracleMaxAgeSeconds:    900,
			PriceDeviationBps:      2_000,
			SettleToleranceBps:     100,
			LiquidationBonusBps:    500,
			MaxLiquidationBps:      3_000,
			ProtocolFeeBps:         1_000,
		},
		Policy: PolicySection{
			BaseBps:             200,
			Rate1Bps:            1_000,
			MaxBps:              5_000,
			Tier1Bps:            4_000,
			Tier2Bps:            8_000,
			HealthyRatioBps:     5_000,
			LiquidationRatioBps: 2_000,
		},
		Quota: Quota{
			MaxRequestsPerMin: 60,
			EpochSeconds:      3_600,
		},
	}
}
