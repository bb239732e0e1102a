package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shouni/gemini-media-kit/pkg/domain"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// classify はエラーを HTTP ステータスと利用者向けの種別に変換します。
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnauthorized, "missing_credential"
	case errors.Is(err, domain.ErrNoMediaReturned):
		return http.StatusUnprocessableEntity, "no_media"
	case errors.Is(err, domain.ErrMissingAsset):
		return http.StatusUnprocessableEntity, "missing_asset"
	case errors.Is(err, domain.ErrAllItemsFailed):
		return http.StatusBadGateway, "all_items_failed"
	case errors.Is(err, domain.ErrOperationFailed):
		return http.StatusBadGateway, "operation_failed"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "transport"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, "validation"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗しました", "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		slog.WarnContext(r.Context(), "リクエストを処理できませんでした", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}
