package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/bearer/internal/auth/service"
	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/slogx"
)

// writeServiceError maps service failures onto the two client visible
// families. Anything unrecognised is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrIncorrectCredentials):
		authsdk.ErrIncorrectCredentials.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInactiveUser):
		authsdk.ErrInactiveUser.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		authsdk.ErrInternal.WriteError(w)
	}
}
