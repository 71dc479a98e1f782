package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"synthpool/native/synth"
	"synthpool/observability/metrics"
)

const requestBodyLimit = 1 << 20 // 1 MiB

type accountRequest struct {
	Account string `json:"account"`
}

type amountRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type depositRequest struct {
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	Collateral string `json:"collateral"`
}

type liquidationRequest struct {
	Account string `json:"account"`
	Target  string `json:"target"`
	Amount  string `json:"amount"`
}

type rebalanceRequest struct {
	Account string `json:"account"`
	Price   string `json:"price"`
}

type deviationRequest struct {
	Caller   string `json:"caller"`
	IsSplit  bool   `json:"isSplit"`
	RatioNum uint64 `json:"ratioNum"`
	RatioDen uint64 `json:"ratioDen"`
}

type forceRequest struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

type feesRequest struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type amountResponse struct {
	Amount string `json:"amount"`
}

func (s *Service) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var body depositRequest
	if err := decodeRequest(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := synth.ParseAddress(body.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	collateral := big.NewInt(0)
	if body.Collateral != "" {
		if collateral, err = parseAmount(body.Collateral); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.DepositRequest(account, amount, collateral)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveRequest(s.PoolID(), synth.RequestDeposit.String())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleRedeem(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.RedemptionRequest(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveRequest(s.PoolID(), synth.RequestRedeem.String())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	liquidator, target, amount, err := decodeLiquidationRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.LiquidationRequest(liquidator, target, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveRequest(s.PoolID(), synth.RequestLiquidate.String())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleCancel(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.CancelRequest(account)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Service) handleClaimAsset(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var minted *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		minted, execErr = e.ClaimAsset(account)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveClaim(s.PoolID(), synth.RequestDeposit.String())
	writeJSON(w, http.StatusOK, amountResponse{Amount: minted.String()})
}

func (s *Service) handleClaimReserve(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var payout *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		payout, execErr = e.ClaimReserve(account)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveClaim(s.PoolID(), synth.RequestRedeem.String())
	writeJSON(w, http.StatusOK, amountResponse{Amount: payout.String()})
}

func (s *Service) handleAddCollateral(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.AddCollateral(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleReduceCollateral(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.ReduceCollateral(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleExit(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var payout *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		payout, execErr = e.ExitPool(account, amount)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: payout.String()})
}

func (s *Service) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.AddLiquidityRequest(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveRequest(s.PoolID(), synth.RequestAddLiquidity.String())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleReduceLiquidity(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.ReduceLiquidityRequest(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	metrics.Synth().ObserveRequest(s.PoolID(), synth.RequestReduceLiquidity.String())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleCancelLiquidity(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.CancelLiquidityRequest(account)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Service) handleLPCollateralDeposit(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.DepositLPCollateral(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleLPCollateralWithdraw(w http.ResponseWriter, r *http.Request) {
	account, amount, err := decodeAmountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.WithdrawLPCollateral(account, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleClaimInterest(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var payout *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		payout, execErr = e.ClaimInterest(account)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: payout.String()})
}

func (s *Service) handleLiquidateLP(w http.ResponseWriter, r *http.Request) {
	liquidator, target, amount, err := decodeLiquidationRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.LiquidateLP(liquidator, target, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

func (s *Service) handleClaimLPLiquidation(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var seized *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		seized, execErr = e.ClaimLPLiquidation(account)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: seized.String()})
}

func (s *Service) handleRemoveLP(w http.ResponseWriter, r *http.Request) {
	account, err := decodeAccountRequest(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var payout *big.Int
	err = s.Exec(func(e *synth.Engine) error {
		var execErr error
		payout, execErr = e.RemoveLP(account)
		return execErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: payout.String()})
}

func (s *Service) handleOffchain(w http.ResponseWriter, r *http.Request) {
	err := s.Exec(func(e *synth.Engine) error {
		return e.InitiateOffchainRebalance()
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebalancing_offchain"})
}

func (s *Service) handleOnchain(w http.ResponseWriter, r *http.Request) {
	err := s.Exec(func(e *synth.Engine) error {
		return e.InitiateOnchainRebalance()
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebalancing_onchain"})
}

func (s *Service) handleDeviation(w http.ResponseWriter, r *http.Request) {
	var body deviationRequest
	if err := decodeRequest(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := synth.ParseAddress(body.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.ResolvePriceDeviation(caller, body.IsSplit, body.RatioNum, body.RatioDen)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Service) handleRebalance(w http.ResponseWriter, r *http.Request) {
	var body rebalanceRequest
	if err := decodeRequest(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := synth.ParseAddress(body.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	price, err := parseAmount(body.Price)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.RebalancePool(account, price)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (s *Service) handleForceRebalance(w http.ResponseWriter, r *http.Request) {
	var body forceRequest
	if err := decodeRequest(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := synth.ParseAddress(body.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := synth.ParseAddress(body.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.ForceRebalanceLP(caller, account)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (s *Service) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	var body feesRequest
	if err := decodeRequest(r, &body); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := synth.ParseAddress(body.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	recipient, err := synth.ParseAddress(body.Recipient)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.Exec(func(e *synth.Engine) error {
		return e.WithdrawProtocolFees(caller, recipient, amount)
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handlePool(w http.ResponseWriter, r *http.Request) {
	var pool *synth.Pool
	err := s.View(func(e *synth.Engine) error {
		var viewErr error
		pool, viewErr = e.PoolInfo()
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (s *Service) handleCycle(w http.ResponseWriter, r *http.Request) {
	index, err := parseUint(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var cycle *synth.Cycle
	err = s.View(func(e *synth.Engine) error {
		var viewErr error
		cycle, viewErr = e.CycleInfo(index)
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Service) handlePosition(w http.ResponseWriter, r *http.Request) {
	account, err := synth.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var position *synth.Position
	err = s.View(func(e *synth.Engine) error {
		var viewErr error
		position, viewErr = e.PositionOf(account)
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	account, err := synth.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var health synth.HealthStatus
	err = s.View(func(e *synth.Engine) error {
		var viewErr error
		health, viewErr = e.HealthOf(account)
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"health": health.String()})
}

func (s *Service) handleRequest(w http.ResponseWriter, r *http.Request) {
	account, err := synth.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req *synth.Request
	err = s.View(func(e *synth.Engine) error {
		var viewErr error
		req, viewErr = e.RequestOf(account)
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if req == nil {
		writeJSONError(w, http.StatusNotFound, synth.ErrNoPendingRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleLP(w http.ResponseWriter, r *http.Request) {
	account, err := synth.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var position *synth.LPPosition
	err = s.View(func(e *synth.Engine) error {
		var viewErr error
		position, viewErr = e.LPOf(account)
		return viewErr
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func decodeRequest(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, requestBodyLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func decodeAccountRequest(r *http.Request) (synth.Address, error) {
	var body accountRequest
	if err := decodeRequest(r, &body); err != nil {
		return synth.Address{}, err
	}
	return synth.ParseAddress(body.Account)
}

func decodeAmountRequest(r *http.Request) (synth.Address, *big.Int, error) {
	var body amountRequest
	if err := decodeRequest(r, &body); err != nil {
		return synth.Address{}, nil, err
	}
	account, err := synth.ParseAddress(body.Account)
	if err != nil {
		return synth.Address{}, nil, err
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		return synth.Address{}, nil, err
	}
	return account, amount, nil
}

func decodeLiquidationRequest(r *http.Request) (synth.Address, synth.Address, *big.Int, error) {
	var body liquidationRequest
	if err := decodeRequest(r, &body); err != nil {
		return synth.Address{}, synth.Address{}, nil, err
	}
	liquidator, err := synth.ParseAddress(body.Account)
	if err != nil {
		return synth.Address{}, synth.Address{}, nil, err
	}
	target, err := synth.ParseAddress(body.Target)
	if err != nil {
		return synth.Address{}, synth.Address{}, nil, err
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		return synth.Address{}, synth.Address{}, nil, err
	}
	return liquidator, target, amount, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, errors.New("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseUint(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("index required")
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() < 0 || !parsed.IsUint64() {
		return 0, fmt.Errorf("invalid index %q", value)
	}
	return parsed.Uint64(), nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, synth.ErrNoPendingRequest),
		errors.Is(err, synth.ErrNothingToClaim),
		errors.Is(err, synth.ErrUnknownLP),
		errors.Is(err, synth.ErrTargetNotLiquidatable):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, synth.ErrInvalidAmount),
		errors.Is(err, synth.ErrExcessiveAmount),
		errors.Is(err, synth.ErrInvalidAddress),
		errors.Is(err, synth.ErrSelfLiquidation),
		errors.Is(err, synth.ErrAmountNotLarger),
		errors.Is(err, synth.ErrInvalidSplit):
		writeJSONError(w, http.StatusBadRequest, err)
	case errors.Is(err, synth.ErrNotAdmin), errors.Is(err, synth.ErrNotLP):
		writeJSONError(w, http.StatusForbidden, err)
	case errors.Is(err, synth.ErrRequestPending),
		errors.Is(err, synth.ErrLPAlreadySettled),
		errors.Is(err, synth.ErrRequestSettled),
		errors.Is(err, synth.ErrRequestNotSettled),
		errors.Is(err, synth.ErrPoolNotActive),
		errors.Is(err, synth.ErrWrongPhase),
		errors.Is(err, synth.ErrPoolHalted),
		errors.Is(err, synth.ErrPoolNotHalted),
		errors.Is(err, synth.ErrCycleNotElapsed),
		errors.Is(err, synth.ErrRebalanceNotElapsed),
		errors.Is(err, synth.ErrHaltThresholdNotReached):
		writeJSONError(w, http.StatusConflict, err)
	case errors.Is(err, synth.ErrInsufficientBalance),
		errors.Is(err, synth.ErrInsufficientCollateral),
		errors.Is(err, synth.ErrInsufficientLiquidity),
		errors.Is(err, synth.ErrCollateralBelowRequired),
		errors.Is(err, synth.ErrLiquidityCommitted):
		writeJSONError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, synth.ErrStaleOracle),
		errors.Is(err, synth.ErrMarketOpen),
		errors.Is(err, synth.ErrMarketClosed),
		errors.Is(err, synth.ErrPriceDeviation),
		errors.Is(err, synth.ErrPriceOutOfBand):
		writeJSONError(w, http.StatusPreconditionFailed, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}
