package httpx

import (
	"encoding/json"
	"mime"
	"net/http"
)

// WriteJSON writes v as a JSON body with the given status. Responses are
// marked uncacheable since most of them carry credentials or identity.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// HasContentType reports whether the request body is declared as mediaType,
// ignoring parameters such as charset.
func HasContentType(r *http.Request, mediaType string) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == mediaType
}
