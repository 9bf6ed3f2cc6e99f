package server

import (
	"encoding/json"
	"errors"
	"net/http"

	svcErr "github.com/emberdate/engine/internal/errors"
)

type errorBody struct {
	Code    svcErr.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError converts domain errors into HTTP responses.
// Keeps handlers clean by centralizing error mapping.
func writeError(w http.ResponseWriter, err error) {
	var appErr *svcErr.AppError
	if !errors.As(err, &appErr) {
		// raw infra error: wrap it so the client sees a stable code and a
		// neutral message, never driver details
		errors.As(svcErr.Internal("internal error", err), &appErr)
	}
	writeJSON(w, statusFor(appErr.Code), errorBody{Code: appErr.Code, Message: appErr.Message})
}

func statusFor(code svcErr.Code) int {
	switch code {
	case svcErr.CodeInvalidArgument, svcErr.CodeSelfTarget:
		return http.StatusBadRequest
	case svcErr.CodeAlreadyLiked:
		return http.StatusConflict
	case svcErr.CodeInsufficientLikes, svcErr.CodeDailyLimitReached, svcErr.CodeInsufficientCredit:
		// quota/credit exhausted: the client reacts with an upsell prompt
		return http.StatusPaymentRequired
	case svcErr.CodePremiumRequired, svcErr.CodeBlocked:
		return http.StatusForbidden
	case svcErr.CodeNoRewindAvailable, svcErr.CodeRewindExpired:
		return http.StatusGone
	case svcErr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
