package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synthpool/gateway/middleware"
	"synthpool/native/bank"
	nativecommon "synthpool/native/common"
	"synthpool/native/synth"
	"synthpool/services/oracle"
	"synthpool/storage"
)

const (
	lpHex    = "0x0000000000000000000000000000000000000001"
	userHex  = "0x0000000000000000000000000000000000000002"
	adminHex = "0x00000000000000000000000000000000000000aa"
)

type testGateway struct {
	t       *testing.T
	handler http.Handler
	engine  *synth.Engine
	reserve *bank.Ledger
	feed    *oracle.Manual
	params  synth.Params
	now     int64
}

func mustAddr(t *testing.T, s string) synth.Address {
	t.Helper()
	parsed, err := synth.ParseAddress(s)
	require.NoError(t, err)
	return parsed
}

func newTestGateway(t *testing.T, rl *middleware.RateLimiter) *testGateway {
	t.Helper()
	feed, err := oracle.NewManual(big.NewInt(2_000_000_000_000_000_000))
	require.NoError(t, err)
	feed.SetMarketOpen(true)

	reserve := bank.NewLedger("USD")
	store := synth.NewStore(storage.NewMemDB(), "tsla-usd")
	engine, err := synth.NewPool(synth.PoolConfig{
		ID:     "tsla-usd",
		Asset:  "sTSLA",
		Params: synth.DefaultParams(),
		Policy: synth.Policy{
			Curve:               synth.InterestCurve{Tier1Bps: 4_000, Tier2Bps: 8_000},
			HealthyRatioBps:     5_000,
			LiquidationRatioBps: 2_000,
		},
	}, store, feed, reserve, nil, mustAddr(t, adminHex))
	require.NoError(t, err)

	g := &testGateway{
		t:       t,
		engine:  engine,
		reserve: reserve,
		feed:    feed,
		params:  synth.DefaultParams(),
	}
	engine.SetNowFunc(func() int64 { return g.now })
	feed.SetNowFunc(func() time.Time { return time.Unix(g.now, 0) })
	// Genesis stamped the wall clock before the test clock was installed;
	// anchor the test clock on it.
	cycle0, err := engine.CycleInfo(0)
	require.NoError(t, err)
	g.now = cycle0.StartedAt

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(engine, logger)
	g.handler = NewRouter(svc, RouterConfig{RateLimiter: rl})
	return g
}

func (g *testGateway) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	g.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(g.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

func (g *testGateway) doRaw(method, path, body string) *httptest.ResponseRecorder {
	g.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

// runCycle drives one full settlement round through the HTTP surface.
func (g *testGateway) runCycle(price *big.Int) {
	g.t.Helper()
	g.now += g.params.CycleLength
	g.feed.SetMarketOpen(true)
	rec := g.do(http.MethodPost, "/v1/cycle/offchain", nil)
	require.Equal(g.t, http.StatusOK, rec.Code, rec.Body.String())

	g.now += g.params.RebalanceLength
	g.feed.SetMarketOpen(false)
	require.NoError(g.t, g.feed.SetPrice(price))
	rec = g.do(http.MethodPost, "/v1/cycle/onchain", nil)
	require.Equal(g.t, http.StatusOK, rec.Code, rec.Body.String())

	pool, err := g.engine.PoolInfo()
	require.NoError(g.t, err)
	for _, lp := range pool.ActiveLPs {
		if pool.Status != synth.PoolRebalancingOnchain {
			break
		}
		rec = g.do(http.MethodPost, "/v1/cycle/rebalance", map[string]string{
			"account": lp.Hex(),
			"price":   price.String(),
		})
		require.Equal(g.t, http.StatusOK, rec.Code, rec.Body.String())
	}
	g.feed.SetMarketOpen(true)
}

func (g *testGateway) fund(hexAddr string, amount int64) {
	g.t.Helper()
	require.NoError(g.t, g.reserve.Mint(mustAddr(g.t, hexAddr), big.NewInt(amount)))
}

func TestHealthzAndCORS(t *testing.T) {
	g := newTestGateway(t, nil)

	rec := g.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = g.do(http.MethodOptions, "/v1/pool", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPoolEndpointReportsGenesis(t *testing.T) {
	g := newTestGateway(t, nil)

	rec := g.do(http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pool synth.Pool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pool))
	require.Equal(t, "tsla-usd", pool.ID)
	require.Equal(t, "sTSLA", pool.Asset)
	require.Equal(t, synth.PoolActive, pool.Status)
	require.EqualValues(t, 0, pool.CycleIndex)
}

func TestLiquidityLifecycleOverHTTP(t *testing.T) {
	g := newTestGateway(t, nil)
	g.fund(lpHex, 10_000)

	rec := g.do(http.MethodPost, "/v1/lp/add", map[string]string{
		"account": lpHex,
		"amount":  "10000",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	// The commitment applies at the cycle boundary, not before.
	rec = g.do(http.MethodGet, "/v1/lps/"+lpHex, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	g.runCycle(big.NewInt(2_000_000_000_000_000_000))

	rec = g.do(http.MethodGet, "/v1/lps/"+lpHex, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var position synth.LPPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &position))
	require.Zero(t, position.Liquidity.Cmp(big.NewInt(10_000)))
}

func TestDepositFlowOverHTTP(t *testing.T) {
	g := newTestGateway(t, nil)
	price := big.NewInt(2_000_000_000_000_000_000)
	g.fund(lpHex, 10_000)
	rec := g.do(http.MethodPost, "/v1/lp/add", map[string]string{
		"account": lpHex,
		"amount":  "10000",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	g.runCycle(price)

	g.fund(userHex, 1_500)
	rec = g.do(http.MethodPost, "/v1/deposits", map[string]string{
		"account":    userHex,
		"amount":     "1000",
		"collateral": "500",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = g.do(http.MethodGet, "/v1/requests/"+userHex, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending synth.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Equal(t, synth.RequestDeposit, pending.Kind)
	require.Zero(t, pending.Amount.Cmp(big.NewInt(1_000)))

	g.runCycle(price)

	rec = g.do(http.MethodPost, "/v1/claims/asset", map[string]string{"account": userHex})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var minted amountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &minted))
	require.Equal(t, "500", minted.Amount)

	rec = g.do(http.MethodGet, "/v1/positions/"+userHex, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var position synth.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &position))
	require.Zero(t, position.Amount.Cmp(big.NewInt(500)))
	require.Zero(t, position.Collateral.Cmp(big.NewInt(500)))

	rec = g.do(http.MethodGet, "/v1/positions/"+userHex+"/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "healthy", health["health"])
}

func TestErrorStatusMapping(t *testing.T) {
	g := newTestGateway(t, nil)

	// Malformed JSON body.
	rec := g.doRaw(http.MethodPost, "/v1/deposits", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Invalid address.
	rec = g.do(http.MethodPost, "/v1/deposits", map[string]string{
		"account": "0x1234",
		"amount":  "1000",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// No committed liquidity to back the mint.
	rec = g.do(http.MethodPost, "/v1/deposits", map[string]string{
		"account":    userHex,
		"amount":     "1000",
		"collateral": "500",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The open cycle has not elapsed.
	rec = g.do(http.MethodPost, "/v1/cycle/offchain", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Administrative surface rejects outsiders.
	rec = g.do(http.MethodPost, "/v1/fees/withdraw", map[string]string{
		"caller":    userHex,
		"recipient": lpHex,
		"amount":    "1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Nothing pending for the account.
	rec = g.do(http.MethodGet, "/v1/requests/"+userHex, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Non-numeric cycle index.
	rec = g.do(http.MethodGet, "/v1/cycles/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimiterThrottles(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := middleware.NewRateLimiter(nativecommon.Quota{
		MaxRequestsPerMin: 2,
		EpochSeconds:      3_600,
	}, logger)
	g := newTestGateway(t, rl)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/pool", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		rec := httptest.NewRecorder()
		g.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/pool", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// The unauthenticated health probe is outside the limited surface.
	rec = httptest.NewRecorder()
	probe := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	probe.Header.Set("X-Real-IP", "203.0.113.7")
	g.handler.ServeHTTP(rec, probe)
	require.Equal(t, http.StatusOK, rec.Code)
}
