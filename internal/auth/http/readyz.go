package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/store"
	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
)

var errNoSigningKey = errors.New("no signing key")

// ReadyzHandler reports 503 until the credential store answers and a signing
// key is loaded.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys KeyPublisher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"signer":   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := signerReady(keys); err != nil {
			checks["signer"] = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

func signerReady(keys KeyPublisher) error {
	if keys == nil {
		return errNoSigningKey
	}
	return keys.Ready()
}
