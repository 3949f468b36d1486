package wordpress

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"contentforge/internal/domain/entity"
)

// ErrSessionExpired indicates that the configured JWT has passed its expiry
// and every authenticated call would be rejected. The operator has to obtain
// a fresh token; retrying cannot help.
var ErrSessionExpired = errors.New(
	"wordpress session expired: obtain a new JWT from the site and update the configured token")

// ThrottleError represents a 429 response from the CMS. Delay carries the
// Retry-After hint. Its message contains the phrase "rate limit" so the
// retry layer backs off exponentially instead of using the flat delay.
type ThrottleError struct {
	Delay  time.Duration
	Detail string
}

func (e *ThrottleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rate limit exceeded (retry after %v)", e.Delay)
	}
	return fmt.Sprintf("%s: rate limit exceeded (retry after %v)", e.Detail, e.Delay)
}

// RequestError represents a 4xx response other than 429.
type RequestError struct {
	Status int
	Code   string
	Detail string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wordpress api client error %d (%s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("wordpress api client error %d: %s", e.Status, e.Detail)
}

// Is maps a 404 onto entity.ErrNotFound, so callers can detect a missing
// post without reaching for the concrete type.
func (e *RequestError) Is(target error) bool {
	return target == entity.ErrNotFound && e.Status == http.StatusNotFound
}

// ServiceError represents a 5xx response.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("wordpress api server error %d: %s", e.Status, e.Detail)
}

// apiError is the standard WordPress REST error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyStatus converts a non-2xx response into a typed error. The body is
// parsed for the REST error envelope when possible; otherwise a bounded slice
// of the raw body is carried for diagnosis.
func classifyStatus(statusCode int, header http.Header, body []byte) error {
	detail := errorDetail(body)

	if statusCode == http.StatusTooManyRequests {
		return &ThrottleError{
			Delay:  retryAfterHint(header),
			Detail: "wordpress api",
		}
	}
	if statusCode >= 400 && statusCode < 500 {
		var envelope apiError
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code != "" {
			return &RequestError{Status: statusCode, Code: envelope.Code, Detail: envelope.Message}
		}
		return &RequestError{Status: statusCode, Detail: detail}
	}
	if statusCode >= 500 {
		return &ServiceError{Status: statusCode, Detail: detail}
	}
	return fmt.Errorf("unexpected status code %d: %s", statusCode, detail)
}

// retryAfterHint reads the Retry-After header, defaulting to 10s when the
// header is missing or unparsable. Only the delta-seconds form is handled.
func retryAfterHint(header http.Header) time.Duration {
	const fallback = 10 * time.Second

	raw := header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func errorDetail(body []byte) string {
	const maxDetail = 200
	if len(body) > maxDetail {
		body = body[:maxDetail]
	}
	return string(body)
}
