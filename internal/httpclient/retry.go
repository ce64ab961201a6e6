package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RetryPolicy controls retry attempts, the backoff between them and the
// per-attempt timeout growth. Every network request in the pipeline goes
// through DoWithRetry with some policy.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first (min 1)
	BaseTimeout time.Duration // timeout of the first attempt; grows linearly per attempt
	MaxTimeout  time.Duration // hard cap on the per-attempt timeout
	BaseBackoff time.Duration // delay after the first failure; doubles per attempt
	MaxBackoff  time.Duration // hard cap on the backoff delay
}

// DefaultRetryPolicy: 3 attempts, 15s/30s timeouts, 1s..10s exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseTimeout: 15 * time.Second,
	MaxTimeout:  30 * time.Second,
	BaseBackoff: 1 * time.Second,
	MaxBackoff:  10 * time.Second,
}

// QuickRetryPolicy is for cheap existence probes where a second chance is
// enough: 2 attempts with short timeouts.
var QuickRetryPolicy = RetryPolicy{
	MaxAttempts: 2,
	BaseTimeout: 8 * time.Second,
	MaxTimeout:  16 * time.Second,
	BaseBackoff: 1 * time.Second,
	MaxBackoff:  2 * time.Second,
}

// attemptTimeout returns the timeout for attempt n (0-based): base*(n+1) capped at max.
func (p RetryPolicy) attemptTimeout(n int) time.Duration {
	d := p.BaseTimeout * time.Duration(n+1)
	if p.MaxTimeout > 0 && d > p.MaxTimeout {
		return p.MaxTimeout
	}
	return d
}

// backoff returns the delay after failed attempt n (0-based): base<<n capped at max.
func (p RetryPolicy) backoff(n int) time.Duration {
	d := p.BaseBackoff << uint(n)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// nonRetryable reports whether a status code must short-circuit further
// attempts: the origin answered definitively, retrying would only burn quota.
func nonRetryable(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
		return true
	}
	return false
}

// DoWithRetry performs method on rawURL with the given policy. Each attempt
// gets its own context deadline; failed attempts (transport error or non-2xx)
// back off exponentially before the next one. A 403/404/429 response is
// returned immediately. Every attempt is recorded into stats (stats may be
// nil). Caller must close resp.Body when err == nil.
func DoWithRetry(ctx context.Context, client *http.Client, method, rawURL string, policy RetryPolicy, stats *Stats) (*http.Response, error) {
	if client == nil {
		client = Default()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	release := globalHostSem.Acquire(rawURL)
	defer release()

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.attemptTimeout(attempt))
		start := time.Now()
		resp, err := doOnce(attemptCtx, client, method, rawURL)
		elapsed := time.Since(start)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			stats.Record(true, elapsed)
			// The attempt context must outlive the response body read, so
			// cancel travels with the body instead of firing here.
			resp.Body = &ctxBody{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}
		stats.Record(false, elapsed)
		if err == nil {
			code := resp.StatusCode
			drain(resp)
			cancel()
			if nonRetryable(code) {
				return nil, fmt.Errorf("%s %s: HTTP %d (not retryable)", method, rawURL, code)
			}
			lastErr = fmt.Errorf("%s %s: HTTP %d", method, rawURL, code)
		} else {
			cancel()
			lastErr = err
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.backoff(attempt)):
		}
	}
	return nil, lastErr
}

// Get fetches rawURL with the policy. Convenience wrapper around DoWithRetry.
func Get(ctx context.Context, client *http.Client, rawURL string, policy RetryPolicy, stats *Stats) (*http.Response, error) {
	return DoWithRetry(ctx, client, http.MethodGet, rawURL, policy, stats)
}

// Head issues a HEAD request for rawURL with the policy.
func Head(ctx context.Context, client *http.Client, rawURL string, policy RetryPolicy, stats *Stats) (*http.Response, error) {
	return DoWithRetry(ctx, client, http.MethodHead, rawURL, policy, stats)
}

func doOnce(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")
	return client.Do(req)
}
