package synth

import (
	"math/big"
	"strconv"
)

// Event is the canonical payload emitted by the engine for downstream
// consumers (daemon log, gateway websockets, audit trail).
type Event struct {
	Type       string
	Attributes map[string]string
}

const (
	EventTypeDepositRequested     = "synth.deposit.requested"
	EventTypeRedeemRequested      = "synth.redeem.requested"
	EventTypeLiquidationRequested = "synth.liquidation.requested"
	EventTypeRequestCancelled     = "synth.request.cancelled"
	EventTypeAssetClaimed         = "synth.asset.claimed"
	EventTypeReserveClaimed       = "synth.reserve.claimed"
	EventTypeLiquidityRequested   = "synth.liquidity.requested"
	EventTypeInterestClaimed      = "synth.interest.claimed"
	EventTypeCycleOffchain        = "synth.cycle.offchain"
	EventTypeCycleOnchain         = "synth.cycle.onchain"
	EventTypeLPSettled            = "synth.lp.settled"
	EventTypeCycleSettled         = "synth.cycle.settled"
	EventTypeSplitResolved        = "synth.split.resolved"
	EventTypeDeviationAccepted    = "synth.deviation.accepted"
	EventTypePoolHalted           = "synth.pool.halted"
	EventTypePoolExited           = "synth.pool.exited"
)

func (e *Engine) emit(eventType string, attrs map[string]string) {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	attrs["pool"] = e.poolID
	e.events = append(e.events, &Event{Type: eventType, Attributes: attrs})
}

func (e *Engine) emitRequest(eventType string, addr Address, req *Request) {
	attrs := map[string]string{
		"account": addr.Hex(),
		"kind":    req.Kind.String(),
		"cycle":   strconv.FormatUint(req.Cycle, 10),
	}
	if req.Amount != nil {
		attrs["amount"] = req.Amount.String()
	}
	if req.Collateral != nil && req.Collateral.Sign() > 0 {
		attrs["collateral"] = req.Collateral.String()
	}
	if !req.Target.IsZero() {
		attrs["target"] = req.Target.Hex()
	}
	e.emit(eventType, attrs)
}

func (e *Engine) emitAmount(eventType string, addr Address, amount *big.Int) {
	attrs := map[string]string{"account": addr.Hex()}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	e.emit(eventType, attrs)
}

// Events drains and returns the events accumulated since the previous call.
func (e *Engine) Events() []*Event {
	out := e.events
	e.events = nil
	return out
}
