package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

func (c *Client) completionContentWithRetry(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	var (
		content   string
		attempts  int
		hint      time.Duration
		lastError error
	)

	err := retry.Do(ctx, c.backoff(&hint), func(ctx context.Context) error {
		attempts++
		completion, body, err := c.sendChatRequestOnce(ctx, payload)
		if err == nil {
			text, finishReason := extractCompletionPayload(completion)
			if text != "" {
				content = text
				return nil
			}
			if len(completion.Choices) == 0 {
				err = fmt.Errorf("%s: empty choices", op)
			} else {
				err = &emptyContentError{
					Op:           op,
					FinishReason: finishReason,
					Refusal:      extractCompletionRefusal(completion),
					Snippet:      summarizePayloadSnippet(string(body)),
				}
			}
		}
		lastError = err
		retryable, retryAfter := classifyRetry(ctx, err)
		if !retryable {
			return err
		}
		hint = retryAfter
		return retry.RetryableError(err)
	})
	if err == nil {
		return content, nil
	}
	if attempts > 1 && lastError != nil && errors.Is(err, lastError) {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastError)
	}
	return "", err
}

// backoff doubles from the configured base up to the configured cap. A
// Retry-After hint from the last response replaces the next computed delay.
func (c *Client) backoff(hint *time.Duration) retry.Backoff {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	var base retry.Backoff
	if c.retryBaseDelay > 0 {
		base = retry.WithCappedDuration(maxDelay, retry.NewExponential(c.retryBaseDelay))
	} else {
		base = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	limited := retry.WithMaxRetries(uint64(attempts-1), base)

	return retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := limited.Next()
		if stop {
			return 0, true
		}
		if *hint > 0 {
			next = min(*hint, maxDelay)
			*hint = 0
		}
		return next, false
	})
}

func classifyRetry(ctx context.Context, err error) (bool, time.Duration) {
	if err == nil || ctx.Err() != nil {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}

	var empty *emptyContentError
	if errors.As(err, &empty) {
		return true, 0
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true, statusErr.RetryAfter
		default:
			return false, 0
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, 0
	}
	return false, 0
}
