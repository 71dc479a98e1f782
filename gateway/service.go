package gateway

import (
	"log/slog"
	"strconv"
	"sync"

	"synthpool/native/synth"
	"synthpool/observability"
	"synthpool/observability/logging"
	"synthpool/observability/metrics"
)

// Service serialises access to the pool engine. The engine itself is strictly
// sequential; the service provides the single lock the HTTP handlers and the
// cycle scheduler share, and fans engine events out to the log and metrics.
type Service struct {
	mu     sync.Mutex
	engine *synth.Engine
	logger *slog.Logger
}

func NewService(engine *synth.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, logger: logger}
}

// Exec runs a mutating engine operation under the service lock and publishes
// the events it emitted.
func (s *Service) Exec(fn func(*synth.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.engine)
	s.publish()
	return err
}

// View runs a read-only engine operation under the service lock.
func (s *Service) View(fn func(*synth.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// PoolID returns the identifier of the pool the service fronts.
func (s *Service) PoolID() string {
	return s.engine.PoolID()
}

func (s *Service) publish() {
	poolID := s.engine.PoolID()
	for _, event := range s.engine.Events() {
		attrs := make([]any, 0, len(event.Attributes)+1)
		attrs = append(attrs, slog.String("type", event.Type))
		for key, value := range event.Attributes {
			// Account identifiers are masked; amounts and cycle metadata
			// pass through the allowlist.
			attrs = append(attrs, logging.MaskField(key, value))
		}
		s.logger.Info("engine event", attrs...)
		observability.Events().RecordEvent(event.Type, poolID)

		switch event.Type {
		case synth.EventTypeCycleSettled:
			metrics.Synth().ObserveCycleSettled(poolID)
			if price, ok := floatAttr(event, "price"); ok {
				metrics.Synth().SetSettlementPrice(poolID, price)
			}
		case synth.EventTypeCycleOnchain:
			if imbalance, ok := floatAttr(event, "imbalance"); ok {
				metrics.Synth().SetCycleImbalance(poolID, imbalance)
			}
		case synth.EventTypePoolHalted:
			metrics.Synth().ObserveHalt(poolID)
		}
	}
	if pool, err := s.engine.PoolInfo(); err == nil {
		metrics.Synth().SetPoolStatus(pool.ID, uint8(pool.Status))
	}
}

func floatAttr(event *synth.Event, key string) (float64, bool) {
	raw, ok := event.Attributes[key]
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
