package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

func (s *ThermoswitchApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Printf("panic: %v", err)
				w.Header().Set("Connection", "close")
				errResp := NewInternalServerError(fmt.Errorf("%v", err))
				s.writeJson(w, errResp.StatusCode, errResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware authenticates requests with a bearer session token. A
// request with no usable Authorization header is unauthorized, a token
// which fails verification or is not present in the token store is
// forbidden.
func (s *ThermoswitchApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ident, err := s.verifySessionToken(tokenString)
		if err != nil {
			s.log.Printf("failed to verify session token: %s", err)
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if _, err := s.db.GetActiveToken(hashToken(tokenString)); err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewForbiddenError()
			} else {
				s.log.Printf("failed to look up session token: %s", err)
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next(w, r.WithContext(WithIdentity(r.Context(), ident)))
	}
}
