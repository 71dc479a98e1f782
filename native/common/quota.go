package common

import (
	"errors"
	"math"
)

var (
	ErrQuotaRequestsExceeded = errors.New("quota requests exceeded")
	ErrQuotaReserveExceeded  = errors.New("quota reserve cap exceeded")
	ErrQuotaCounterOverflow  = errors.New("quota counter overflow")
)

// QuotaNow captures the current quota usage counters for an address.
type QuotaNow struct {
	ReqCount    uint32
	ReserveUsed uint64
	EpochID     uint64
}

// Quota defines the limits enforced for a module interaction per address.
type Quota struct {
	MaxRequestsPerMin  uint32
	MaxReservePerEpoch uint64
	EpochSeconds       uint32
}

// CheckQuota verifies whether the additional request and reserve usage fit
// within the configured quota. The returned QuotaNow reflects the updated
// counters when the quota is not exceeded.
func CheckQuota(q Quota, nowEpoch uint64, prev QuotaNow, addReq uint32, addReserve uint64) (QuotaNow, error) {
	next := prev
	if prev.EpochID != nowEpoch {
		next = QuotaNow{EpochID: nowEpoch}
	}

	if addReq > 0 {
		if next.ReqCount > math.MaxUint32-addReq {
			return prev, ErrQuotaCounterOverflow
		}
		next.ReqCount += addReq
	}
	if q.MaxRequestsPerMin > 0 && next.ReqCount > q.MaxRequestsPerMin {
		return prev, ErrQuotaRequestsExceeded
	}

	if addReserve > 0 {
		if next.ReserveUsed > math.MaxUint64-addReserve {
			return prev, ErrQuotaCounterOverflow
		}
		next.ReserveUsed += addReserve
	}
	if q.MaxReservePerEpoch > 0 && next.ReserveUsed > q.MaxReservePerEpoch {
		return prev, ErrQuotaReserveExceeded
	}

	return next, nil
}
