package pricefeed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("price API circuit breaker is open")

// BreakerState represents the current state of the circuit breaker
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerStats holds statistics for the circuit breaker
type BreakerStats struct {
	State           string    `json:"state"`
	TotalRequests   int64     `json:"total_requests"`
	FailedRequests  int64     `json:"failed_requests"`
	Rejected        int64     `json:"rejected"`
	LastFailureTime time.Time `json:"last_failure_time"`
	StateChanges    int64     `json:"state_changes"`
}

// Breaker guards a PriceSource. After threshold consecutive failures it
// rejects calls for the cooldown, then lets a single probe through.
// A missing API key or an unknown symbol is not a failure.
type Breaker struct {
	source    PriceSource
	threshold int
	cooldown  time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
	stats    BreakerStats
}

// NewBreaker wraps source with a circuit breaker.
func NewBreaker(source PriceSource, threshold int, cooldown time.Duration, logger logrus.FieldLogger) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Breaker{
		source:    source,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger.WithField("circuit_breaker", "price_api"),
		now:       time.Now,
	}
}

// LatestPrice implements PriceSource.
func (b *Breaker) LatestPrice(ctx context.Context, symbol string) (*models.CurrentPrice, bool, error) {
	if !b.allow() {
		return nil, false, ErrCircuitOpen
	}

	price, found, err := b.source.LatestPrice(ctx, symbol)
	b.record(err)
	return price, found, err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalRequests++

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.stats.Rejected++
			return false
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		if b.probing {
			b.stats.Rejected++
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	// A canceled caller says nothing about upstream health.
	if errors.Is(err, context.Canceled) {
		return
	}

	if err == nil || errors.Is(err, ErrNotConfigured) {
		b.failures = 0
		if b.state != StateClosed {
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	b.stats.FailedRequests++
	b.stats.LastFailureTime = b.now()

	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}

	b.logger.WithFields(logrus.Fields{
		"state":         b.state.String(),
		"failure_count": b.failures,
	}).WithError(err).Warn("Price API call failed")
}

func (b *Breaker) setState(state BreakerState) {
	if b.state == state {
		return
	}
	old := b.state
	b.state = state
	b.stats.StateChanges++

	b.logger.WithFields(logrus.Fields{
		"old_state":     old.String(),
		"new_state":     state.String(),
		"failure_count": b.failures,
	}).Info("Circuit breaker state changed")
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns the current statistics
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := b.stats
	stats.State = b.state.String()
	return stats
}
