package openai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
)

// BreakerSettings configures BreakerGenerator
type BreakerSettings struct {
	Name         string
	MaxFailures  uint32
	OpenDuration time.Duration
}

// BreakerGenerator stops calling the wrapped generator after repeated
// failures, so ranking fails fast while the backend is down.
type BreakerGenerator struct {
	next providers.TextGenerator
	cb   *gobreaker.CircuitBreaker
}

var _ providers.TextGenerator = (*BreakerGenerator)(nil)

// NewBreakerGenerator wraps next with a circuit breaker
func NewBreakerGenerator(next providers.TextGenerator, s BreakerSettings) *BreakerGenerator {
	if s.Name == "" {
		s.Name = "text-generation"
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenDuration <= 0 {
		s.OpenDuration = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &BreakerGenerator{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// Generate implements providers.TextGenerator
func (b *BreakerGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, systemPrompt, prompt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State returns the breaker state name
func (b *BreakerGenerator) State() string {
	return b.cb.State().String()
}
