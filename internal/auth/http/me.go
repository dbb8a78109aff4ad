package http

import (
	"net/http"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
	"github.com/aussiebroadwan/bearer/internal/auth/service"
	"github.com/aussiebroadwan/bearer/pkg/authsdk"
	"github.com/aussiebroadwan/bearer/pkg/httpx"
)

// MeHandler serves GET /users/me with the public view of the current user.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, publicUser(user))
	}
}

// ItemsHandler serves GET /users/me/items.
func ItemsHandler(items *service.ItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}

		owned := items.ListOwned(r.Context(), user)
		resp := make([]authsdk.Item, 0, len(owned))
		for _, it := range owned {
			resp = append(resp, authsdk.Item{ItemID: it.ItemID, Owner: it.Owner})
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func publicUser(u domain.User) authsdk.User {
	return authsdk.User{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Disabled: u.Disabled,
	}
}
