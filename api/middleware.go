package api

import (
	"context"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"carpool-matching-service/auth"
)

type contextKey int

const claimsKey contextKey = iota

// requireAuth validates the x-auth-token header and stores the session
// claims on the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("x-auth-token")
		if token == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Msg: "no token, authorization denied"})
			return
		}
		claims, err := s.auth.ParseToken(token)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorBody{Msg: "token is not valid"})
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func claimsFrom(r *http.Request) auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(auth.Claims)
	return claims
}

// recoverMiddleware is the single sink for uncaught panics: log with
// stack, answer a generic 500, and include the stack only outside
// production.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				s.log.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("stack", stack))
				body := errorBody{Msg: "internal server error"}
				if !s.production {
					body.Stack = stack
				}
				s.writeJSON(w, http.StatusInternalServerError, body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
