package synth

import (
	"math/big"
	"testing"
)

func defaultCurvePolicy() Policy {
	return Policy{
		Curve: InterestCurve{
			BaseBps:  200,
			Rate1Bps: 1_000,
			MaxBps:   5_000,
			Tier1Bps: 4_000,
			Tier2Bps: 8_000,
		},
		HealthyRatioBps:     5_000,
		LiquidationRatioBps: 2_000,
	}
}

func TestInterestRateCurve(t *testing.T) {
	p := defaultCurvePolicy()
	cases := []struct {
		utilization uint64
		want        uint64
	}{
		{0, 200},
		{2_000, 200},
		{4_000, 200},    // flat through the first breakpoint
		{6_000, 600},    // halfway up the first slope
		{8_000, 1_000},  // exactly rate1 at tier2
		{9_000, 3_000},  // halfway up the second slope
		{10_000, 5_000}, // max at full utilisation
		{15_000, 5_000}, // clamped beyond
	}
	for _, tc := range cases {
		if got := p.InterestRate(tc.utilization); got != tc.want {
			t.Fatalf("rate at %d bps utilisation = %d, want %d", tc.utilization, got, tc.want)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := defaultCurvePolicy().Validate(); err != nil {
		t.Fatalf("reference policy must validate: %v", err)
	}

	p := defaultCurvePolicy()
	p.Curve.Tier1Bps = 8_000
	if err := p.Validate(); err == nil {
		t.Fatal("tier1 >= tier2 must be rejected")
	}

	p = defaultCurvePolicy()
	p.Curve.Tier2Bps = 10_000
	if err := p.Validate(); err == nil {
		t.Fatal("tier2 at full utilisation must be rejected")
	}

	p = defaultCurvePolicy()
	p.Curve.Rate1Bps = 100
	if err := p.Validate(); err == nil {
		t.Fatal("non-monotonic rates must be rejected")
	}

	p = defaultCurvePolicy()
	p.LiquidationRatioBps = 5_000
	if err := p.Validate(); err == nil {
		t.Fatal("liquidation ratio at the healthy ratio must be rejected")
	}
}

func TestHealthClassification(t *testing.T) {
	if got := Health(1_999, 5_000, 2_000); got != HealthLiquidatable {
		t.Fatalf("below liquidation ratio = %s, want liquidatable", got)
	}
	if got := Health(2_000, 5_000, 2_000); got != HealthWarning {
		t.Fatalf("at liquidation ratio = %s, want warning", got)
	}
	if got := Health(5_000, 5_000, 2_000); got != HealthHealthy {
		t.Fatalf("at healthy ratio = %s, want healthy", got)
	}
}

func TestHealthOfEdgeCases(t *testing.T) {
	p := defaultCurvePolicy()
	if got := p.HealthOf(big.NewInt(0), big.NewInt(0)); got != HealthHealthy {
		t.Fatal("zero exposure must always be healthy")
	}
	if got := p.HealthOf(big.NewInt(0), big.NewInt(1_000)); got != HealthLiquidatable {
		t.Fatal("live exposure with no collateral must be liquidatable")
	}
	if got := p.HealthOf(big.NewInt(500), big.NewInt(1_000)); got != HealthHealthy {
		t.Fatal("50% collateral against the reference policy must be healthy")
	}
	if got := p.HealthOf(big.NewInt(199), big.NewInt(1_000)); got != HealthLiquidatable {
		t.Fatal("19.9% collateral must be liquidatable")
	}
}

func TestRequiredCollateral(t *testing.T) {
	got := RequiredCollateral(big.NewInt(1_000), 5_000)
	if got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("required collateral = %s, want 500", got)
	}
}

func TestAvailableLiquidity(t *testing.T) {
	got := AvailableLiquidity(big.NewInt(10_000), big.NewInt(2_000), big.NewInt(1_000), big.NewInt(4_000))
	if got.Cmp(big.NewInt(7_000)) != 0 {
		t.Fatalf("available = %s, want 7000", got)
	}
	// Over-utilised pools floor at zero rather than going negative.
	got = AvailableLiquidity(big.NewInt(1_000), nil, nil, big.NewInt(5_000))
	if got.Sign() != 0 {
		t.Fatalf("over-utilised available = %s, want 0", got)
	}
}

func TestUtilizationBps(t *testing.T) {
	if got := utilizationBps(big.NewInt(2_500), big.NewInt(10_000)); got != 2_500 {
		t.Fatalf("utilisation = %d, want 2500", got)
	}
	if got := utilizationBps(big.NewInt(0), big.NewInt(10_000)); got != 0 {
		t.Fatal("zero exposure must report zero utilisation")
	}
	// Exposure with no committed liquidity clamps the curve at its maximum.
	if got := utilizationBps(big.NewInt(1), big.NewInt(0)); got != 20_000 {
		t.Fatalf("uncommitted utilisation = %d, want 20000", got)
	}
}
