package mes

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Spok95/shopfloor/internal/metrics"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrNotFound    = errors.New("not found")
)

const (
	defaultFailureThreshold uint32 = 5
	defaultOpenTimeout             = 30 * time.Second
	breakerMaxRequests      uint32 = 1
	breakerInterval                = 60 * time.Second
)

// breaker обёртка над gobreaker: логирует смену состояния и пишет его в метрики.
type breaker struct {
	cb  *gobreaker.CircuitBreaker
	log *slog.Logger
}

func newBreaker(name string, failureThreshold uint32, openTimeout time.Duration, log *slog.Logger, m *metrics.Metrics) *breaker {
	if failureThreshold == 0 {
		failureThreshold = defaultFailureThreshold
	}
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, float64(to))
		},
	}
	m.SetBreakerState(name, float64(gobreaker.StateClosed))
	return &breaker{cb: gobreaker.NewCircuitBreaker(st), log: log}
}

func (b *breaker) execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("mes backend unavailable: %w", ErrCircuitOpen)
	}
	return err
}

func (b *breaker) state() gobreaker.State { return b.cb.State() }
