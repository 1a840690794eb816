package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
	"github.com/example/attendance-scheduler/internal/logging"
)

var (
	msgBadRequestBody    = localized{"無効なリクエスト形式です。", "The request body is invalid."}
	msgInvalidScheduleID = localized{"無効なスケジュール ID です。", "The schedule id is invalid."}
	msgInvalidUserID     = localized{"無効なユーザー ID です。", "The user id is invalid."}
	msgInvalidCandidate  = localized{"無効な候補日程 ID です。", "The candidate id is invalid."}
	msgMissingIdentity   = localized{"認証トークンを指定してください。", "An identity token is required."}
	msgInvalidIdentity   = localized{"認証トークンが無効です。", "The identity token is invalid."}
	msgIdentityFailure   = localized{"ユーザー情報の登録中にエラーが発生しました。", "Failed to register the user."}
	msgPartialAggregate  = localized{"スケジュールの一部のみが処理されました。", "The schedule was only partially processed."}
)

type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).Error("failed to encode response", zap.Error(err))
	}
}

// writeMessage responds with msg in the negotiated language. A non-nil err is
// logged but never shown to the client.
func (r responder) writeMessage(ctx context.Context, w http.ResponseWriter, status int, msg localized, err error) {
	if err != nil {
		r.loggerFor(ctx).Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: msg.in(languageFromContext(ctx))})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if err != nil {
		r.loggerFor(ctx).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: localizedStatusMessage(ctx, status)})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(ctx, http.StatusForbidden),
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   localizedStatusMessage(ctx, http.StatusNotFound),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   localizedStatusMessage(ctx, http.StatusUnprocessableEntity),
			Errors:    localizeValidationErrors(ctx, vErr),
		})
		return
	}

	r.loggerFor(ctx).Error("request failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
	if application.IsPartialAggregateFailure(err) {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "PARTIAL_AGGREGATE_FAILURE",
			Message:   msgPartialAggregate.in(languageFromContext(ctx)),
		})
		return
	}
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(ctx, http.StatusInternalServerError)})
}

func (r responder) loggerFor(ctx context.Context) *zap.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizeValidationErrors(ctx context.Context, vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(ctx, msg)
	}
	return translated
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
