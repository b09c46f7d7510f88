package renderer

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Retrying wraps a Renderer with the pipeline's render policy: one retry
// with a longer deadline on timeout or empty content, plus optional
// request pacing. Any other failure is returned as-is.
type Retrying struct {
	inner   Renderer
	timeout time.Duration
	limiter *rate.Limiter
}

// retryTimeoutFactor extends the deadline on the second attempt; slow ATS
// pages frequently load on the longer budget.
const retryTimeoutFactor = 2

// NewRetrying wraps inner with the given per-render timeout. rateLimit is
// renders per second; zero means unlimited.
func NewRetrying(inner Renderer, timeout time.Duration, rateLimit float64) *Retrying {
	r := &Retrying{inner: inner, timeout: timeout}
	if rateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(rateLimit), 1)
	}
	return r
}

func (r *Retrying) RenderHTML(ctx context.Context, url, waitSelector string) (string, error) {
	return r.render(ctx, url, waitSelector, r.inner.RenderHTML)
}

func (r *Retrying) RenderText(ctx context.Context, url, waitSelector string) (string, error) {
	return r.render(ctx, url, waitSelector, r.inner.RenderText)
}

func (r *Retrying) Close() error {
	return r.inner.Close()
}

type renderFunc func(ctx context.Context, url, waitSelector string) (string, error)

func (r *Retrying) render(ctx context.Context, url, waitSelector string, fn renderFunc) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	content, err := r.attempt(ctx, url, waitSelector, fn, r.timeout)
	if err == nil {
		return content, nil
	}
	if !IsTimeout(err) && !IsEmptyContent(err) {
		return "", err
	}
	if ctx.Err() != nil {
		return "", err
	}

	// Second attempt with a longer budget.
	return r.attempt(ctx, url, waitSelector, fn, r.timeout*retryTimeoutFactor)
}

func (r *Retrying) attempt(ctx context.Context, url, waitSelector string, fn renderFunc, timeout time.Duration) (string, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	content, err := fn(attemptCtx, url, waitSelector)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", &RenderError{Op: "render", URL: url, Err: ErrEmptyContent}
	}
	return content, nil
}
