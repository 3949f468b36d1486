package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// defaultRetryHint is the wait applied to a 429 that carries no usable
// retry information.
const defaultRetryHint = 5 * time.Second

// ThrottledError reports a 429 response together with the wait the service
// asked for.
type ThrottledError struct {
	RetryAfter time.Duration // wait demanded by the service
	Reason     string
}

func (e *ThrottledError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "rate limit exceeded"
	}
	return fmt.Sprintf("%s (retry after %v)", msg, e.RetryAfter)
}

// RejectedError reports a 4xx rejection. Retrying the same payload would just
// fail again, so the retry loop gives up on it immediately.
type RejectedError struct {
	Status int // 4xx as received from the webhook
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// UpstreamError reports a 5xx response, worth another attempt.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string { return e.Reason }

// webhookSender is the delivery core behind the Slack and Discord notifiers.
// The two services share the same shape of conversation, one JSON POST per
// run, 429s with a wait hint, so the rate limiting, status classification
// and retry loop live here and the notifiers only differ in payloads.
type webhookSender struct {
	service     string
	webhookURL  string
	client      *http.Client
	limiter     *RateLimiter
	maxAttempts int
	baseDelay   time.Duration
}

// deliver pushes one payload through the rate limiter and the retry loop.
// Every attempt is logged under a fresh request ID so a failing run can be
// traced across retries.
func (s *webhookSender) deliver(ctx context.Context, summary *RunSummary, payload any) error {
	log := slog.With(
		slog.String("service", s.service),
		slog.String("request_id", uuid.NewString()),
		slog.String("run_id", summary.RunID))

	log.Info("sending run notification",
		slog.Int("published", summary.Published),
		slog.Int("failed", summary.Failed))

	if err := s.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", s.service, err)
	}

	var last error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.post(ctx, payload)
		if err == nil {
			log.Info("run notification delivered", slog.Int("attempt", attempt))
			return nil
		}
		last = err

		delay, retriable := retryDelay(err, attempt, s.baseDelay)
		if !retriable {
			log.Error("webhook rejected the notification", slog.Any("error", err))
			return err
		}
		if attempt == s.maxAttempts {
			break
		}

		log.Warn("webhook attempt failed, backing off", slog.Int("attempt", attempt),
			slog.Duration("delay", delay), slog.Any("error", err))

		wait := time.NewTimer(delay)
		select {
		case <-wait.C:
		case <-ctx.Done():
			wait.Stop()
			return fmt.Errorf("%s notification interrupted: %w", s.service, ctx.Err())
		}
	}

	log.Error("run notification abandoned", slog.Int("attempts", s.maxAttempts), slog.Any("error", last))
	return fmt.Errorf("%s notification failed after %d attempts: %w", s.service, s.maxAttempts, last)
}

// retryDelay decides whether an attempt error is worth another try and how
// long to wait before it. 429 waits are dictated by the service, everything
// retriable else backs off linearly on the base delay.
func retryDelay(err error, attempt int, base time.Duration) (time.Duration, bool) {
	var limited *ThrottledError
	if errors.As(err, &limited) {
		return limited.RetryAfter, true
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return 0, false
	}
	// 5xxや通信断は線形バックオフで再送する。
	return base * time.Duration(attempt), true
}

// post performs a single webhook POST and folds the response status into the
// package error taxonomy.
func (s *webhookSender) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", s.service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", s.service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s webhook: %w", s.service, err)
	}
	defer res.Body.Close()

	reply, _ := io.ReadAll(res.Body)
	return s.classify(res, reply)
}

func (s *webhookSender) classify(res *http.Response, body []byte) error {
	code := res.StatusCode
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	if code == http.StatusTooManyRequests {
		return &ThrottledError{Reason: s.service + " rate limit exceeded", RetryAfter: retryAfterHint(res, body)}
	}
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return &RejectedError{Status: code, Reason: fmt.Sprintf("%s webhook client error: %s", s.service, body)}
	}
	if code >= http.StatusInternalServerError {
		return &UpstreamError{Status: code, Reason: fmt.Sprintf("%s webhook server error: status %d", s.service, code)}
	}
	return fmt.Errorf("%s webhook returned unexpected status %d", s.service, code)
}

// retryAfterHint extracts the wait a 429 asked for. Discord carries a
// retry_after JSON field in seconds, Slack uses the Retry-After header.
// Without either we take a conservative five seconds.
func retryAfterHint(res *http.Response, body []byte) time.Duration {
	var hint struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if json.Unmarshal(body, &hint) == nil && hint.RetryAfter > 0 {
		return time.Duration(hint.RetryAfter * float64(time.Second))
	}

	if raw := res.Header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	return defaultRetryHint
}
