package qbo

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig holds configuration for the QuickBooks circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // window after which closed-state counts reset
	Timeout          time.Duration // open duration before probing again
	FailureThreshold uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerConfig returns the settings used against the accounting API
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "quickbooks",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

type circuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *logrus.Logger
}

func newCircuitBreaker(cfg BreakerConfig, logger *logrus.Logger) *circuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &circuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   cfg.Name,
		logger: logger,
	}
}

// execute runs fn through the breaker. Only errors returned by fn count as
// failures, so callers return remote 4xx answers as results.
func (c *circuitBreaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WithField("breaker", c.name).Warn("Circuit breaker rejected call")
		return nil, ErrCircuitOpen
	}
	return result, err
}

func (c *circuitBreaker) state() gobreaker.State {
	return c.cb.State()
}
