package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WithLogging records every call to a provider: a debug line before it and
// an info or error line after it. Requests, responses and errors pass
// through untouched.
func WithLogging(logger zerolog.Logger, provider string) Middleware {
	logger = logger.With().Str("component", "llm").Str("provider", provider).Logger()

	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
			logger.Debug().
				Str("model", req.Model).
				Int("messages", len(req.Messages)).
				Int64("maxTokens", req.MaxTokens).
				Msg("Sending LLM request")

			start := time.Now()
			resp, err := next.Synchronous(ctx, req)
			duration := time.Since(start)

			if err != nil {
				logger.Error().
					Err(err).
					Str("model", req.Model).
					Dur("duration", duration).
					Msg("LLM request failed")
				return nil, err
			}

			event := logger.Info().
				Str("model", req.Model).
				Dur("duration", duration)
			if resp != nil {
				event = event.Str("stopReason", resp.StopReason)
				if resp.Usage != nil {
					event = event.
						Int64("inputTokens", resp.Usage.InputTokens).
						Int64("outputTokens", resp.Usage.OutputTokens)
				}
			}
			event.Msg("LLM request completed")
			return resp, nil
		})
	}
}
