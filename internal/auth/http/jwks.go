package http

import (
	"net/http"

	"github.com/aussiebroadwan/bearer/pkg/httpx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery. The key
// list is empty while tokens are signed with a shared HMAC secret.
func JWKSHandler(keys KeyPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
