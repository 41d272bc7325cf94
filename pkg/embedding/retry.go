package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retryer wraps an EmbeddingProvider with an explicit, bounded retry policy:
// transient failures are retried with exponential backoff up to MaxAttempts,
// fatal failures abort immediately. The retry budget lives here, at the call
// site boundary, so it can be tested in isolation.
type Retryer struct {
	provider    EmbeddingProvider
	maxAttempts uint
	interval    time.Duration
}

func NewRetryer(provider EmbeddingProvider, maxAttempts uint, initialInterval time.Duration) *Retryer {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	if initialInterval <= 0 {
		initialInterval = 500 * time.Millisecond
	}
	return &Retryer{
		provider:    provider,
		maxAttempts: maxAttempts,
		interval:    initialInterval,
	}
}

func (r *Retryer) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	return r.GenerateContext(context.Background(), text, taskType)
}

// GenerateContext embeds text, retrying transient failures until the attempt
// budget or the context runs out.
func (r *Retryer) GenerateContext(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	op := func() (*EmbeddingResponse, error) {
		res, err := r.provider.Generate(text, taskType)
		if err != nil {
			if IsTransient(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return res, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.interval

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(r.maxAttempts),
	)
}
