package requester

import (
	"errors"
	"fmt"

	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the backend cannot be reached or the
// circuit breaker is open.
var ErrUnavailable = errors.New("backend unavailable")

// errServerStatus marks a 5xx response as a breaker failure while still
// returning the response to the caller.
var errServerStatus = errors.New("server error status")

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*Response] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return gobreaker.NewCircuitBreaker[*Response](settings)
}

// unwrapBreakerResult separates a 5xx response from real failures.
func unwrapBreakerResult(resp *Response, err error) (*Response, error) {
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return nil, err
	}
}
