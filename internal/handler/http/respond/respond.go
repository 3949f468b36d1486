// Package respond writes JSON responses and decides which error messages may
// reach a client. Generation and publish errors routinely carry upstream
// detail (API endpoints, auth failures) that stays in the logs.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"contentforge/internal/domain/entity"
)

const jsonContentType = "application/json"

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// Write sends v as JSON with the given status. Encode failures can only be
// logged because the header is already out.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if encodeErr := json.NewEncoder(w).Encode(v); encodeErr != nil {
		slog.Error("failed to encode JSON response", slog.Int("status_code", status), slog.Any("error", encodeErr))
	}
}

// RawError writes the error message as {"error": ...} without sanitization.
// Only use it for errors constructed in the handler itself.
func RawError(w http.ResponseWriter, status int, err error) {
	Write(w, status, errorBody(err.Error()))
}

// Phrases that mark an error as client-facing. Validation errors across the
// entity and handler layers are written with this vocabulary.
var safePhrases = []string{
	"required", "invalid", "not found", "already exists",
	"must ", "cannot be", "too long", "too short",
}

// clientSafe reports whether err may be shown to the client as-is.
func clientSafe(status int, err error) bool {
	// 500番台は常に内部エラー扱い
	if status >= http.StatusInternalServerError {
		return false
	}

	// 型付きのバリデーションエラーはそのまま返してよい
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		return true
	}

	lower := strings.ToLower(err.Error())
	return slices.ContainsFunc(safePhrases, func(phrase string) bool {
		return strings.Contains(lower, phrase)
	})
}

// UserError pairs an internal error with the message the client should see,
// so handlers can be explicit instead of relying on phrase matching.
type UserError struct {
	Public string
	Cause  error
	Code   int
}

func (e *UserError) Error() string {
	if e.Cause == nil {
		return e.Public
	}
	return e.Cause.Error()
}

func (e *UserError) Unwrap() error { return e.Cause }

// NewUserError builds a UserError carrying both messages.
func NewUserError(status int, public string, cause error) *UserError {
	return &UserError{Public: public, Cause: cause, Code: status}
}

// Fail writes an error response without leaking internals. A *UserError in
// the chain supplies both the status and the client message, and its wrapped
// cause goes to the log. Otherwise validation-style errors pass through
// verbatim and everything else collapses to "internal server error", with
// the real error logged. Anything at 500 or above is always collapsed.
func Fail(w http.ResponseWriter, status int, err error) {
	if err == nil {
		return
	}

	var ue *UserError
	if errors.As(err, &ue) {
		if ue.Cause != nil {
			// 内部エラーは機密情報をマスクしてログへ
			slog.Error("application error",
				slog.String("status", http.StatusText(ue.Code)),
				slog.Int("code", ue.Code),
				slog.String("user_message", ue.Public),
				slog.Any("error", Redact(ue.Cause)))
		}
		Write(w, ue.Code, errorBody(ue.Public))
		return
	}

	if clientSafe(status, err) {
		Write(w, status, errorBody(err.Error()))
		return
	}

	slog.Error("internal server error", slog.String("status", http.StatusText(status)),
		slog.Int("code", status), slog.Any("error", Redact(err)))
	Write(w, status, errorBody("internal server error"))
}
