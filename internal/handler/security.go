package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/taxline-service/internal/domain/auth"
)

// APIKeyAuth authenticates requests via HMAC-SHA256 hashed API keys
// presented in the api_key header.
type APIKeyAuth struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewAPIKeyAuth creates an APIKeyAuth with the given API key repository and
// HMAC pepper.
func NewAPIKeyAuth(apikeys auth.Repository, pepper []byte) *APIKeyAuth {
	return &APIKeyAuth{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Require wraps a handler with API key authentication. The presented key is
// HMAC-SHA256 hashed with the pepper, looked up, and compared in constant
// time to guard against timing side-channels even though the lookup already
// succeeded.
func (a *APIKeyAuth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, a.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := a.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r)
	}
}
