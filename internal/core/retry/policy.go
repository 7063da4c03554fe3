// Package retry implements the bounded exponential backoff policy used
// when opening channels to the speech service.
package retry

import (
	"context"
	"errors"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"edge-speech-go/internal/domain/eventbus"
)

type Config struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

// PermanentError marks an operation failure the policy must not retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so Execute gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports how an Execute run ended.
type Result struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Policy retries an operation with exponential backoff, publishing one
// event per transition on the event bus.
type Policy struct {
	cfg Config
	bus evbus.Bus
}

func NewPolicy(cfg Config) *Policy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultConfig().InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig().MaxDelay
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = DefaultConfig().BackoffFactor
	}
	return &Policy{cfg: cfg, bus: eventbus.Get()}
}

// WithBus replaces the event bus (useful for tests).
func (p *Policy) WithBus(bus evbus.Bus) *Policy {
	if bus != nil {
		p.bus = bus
	}
	return p
}

// Execute invokes op until it succeeds or the policy gives up. The
// inter-attempt wait is cancellable through ctx; cancellation ends the run
// with an abort event.
func (p *Policy) Execute(ctx context.Context, op func(ctx context.Context) error) Result {
	start := time.Now()
	delay := p.cfg.InitialDelay
	attempts := 0

	for {
		p.bus.Publish(eventbus.EventReconnectAttempt, eventbus.ReconnectEventData{
			Attempt: attempts + 1,
			DelayMs: delay.Milliseconds(),
		})

		err := op(ctx)
		attempts++
		if err == nil {
			result := Result{Attempts: attempts, Elapsed: time.Since(start)}
			p.bus.Publish(eventbus.EventReconnectSuccess, eventbus.ReconnectEventData{
				Attempt:   attempts,
				ElapsedMs: result.Elapsed.Milliseconds(),
			})
			return result
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			result := Result{Attempts: attempts, Elapsed: time.Since(start), Err: permanent.Err}
			p.bus.Publish(eventbus.EventReconnectFailure, eventbus.ReconnectEventData{
				Attempt:   attempts,
				ElapsedMs: result.Elapsed.Milliseconds(),
				Error:     permanent.Err.Error(),
			})
			return result
		}

		if attempts >= p.cfg.MaxRetries {
			result := Result{Attempts: attempts, Elapsed: time.Since(start), Err: err}
			p.bus.Publish(eventbus.EventReconnectFailure, eventbus.ReconnectEventData{
				Attempt:   attempts,
				ElapsedMs: result.Elapsed.Milliseconds(),
				Error:     err.Error(),
			})
			return result
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result := Result{Attempts: attempts, Elapsed: time.Since(start), Err: ctx.Err()}
			p.bus.Publish(eventbus.EventReconnectAbort, eventbus.ReconnectEventData{
				Attempt:     attempts,
				ElapsedMs:   result.Elapsed.Milliseconds(),
				AbortReason: ctx.Err().Error(),
			})
			return result
		}

		delay = time.Duration(float64(delay) * p.cfg.BackoffFactor)
		if delay > p.cfg.MaxDelay {
			delay = p.cfg.MaxDelay
		}
	}
}
