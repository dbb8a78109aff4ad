package http

import (
	"net/http"

	"github.com/aussiebroadwan/bearer/internal/auth/service"
	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
)

const formMediaType = "application/x-www-form-urlencoded"

// TokenHandler serves POST /token, the password grant. It reads username and
// password from a form encoded body.
type TokenHandler struct {
	AuthService *service.AuthService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if r.Header.Get("Content-Type") != "" && !httpx.HasContentType(r, formMediaType) {
		authsdk.ErrUnsupportedMediaType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Validate the fields. grant_type is optional but must be "password"
	// when sent.
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if gt := r.PostForm.Get("grant_type"); gt != "" && gt != "password" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 4. Authenticate and mint
	issued, err := h.AuthService.Login(r.Context(), username, password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(issued.ExpiresIn.Seconds()),
	})
}
