package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims are issued by the account service; only the subject is used here.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errNoToken = errors.New("no token")

// tokenFromRequest prefers the Authorization header and falls back to the session cookie.
func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return "", errNoToken
		}
		return token, nil
	}

	cookie, err := r.Cookie(h.config.JWT.CookieName)
	if err != nil {
		return "", errNoToken
	}
	return cookie.Value, nil
}

// verifyToken checks the signature and returns the owning user id from the subject claim.
func (h *Handler) verifyToken(tokenString string) (int64, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sub <= 0 {
		return 0, errors.New("subject is not a user id")
	}
	return sub, nil
}
