package api

import (
	"context"
	"net/http"
	"os"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/mkarpis/jobtrail/internal/token"
)

type ctxKey string

// CtxIdentity holds the verified *token.Identity of the caller.
const CtxIdentity ctxKey = "identity"

// TokenHeader is the custom header the frontend sends the token in.
const TokenHeader = "x-auth-token"

// package-level logger used by handlers and middleware; can be set via SetLogger from caller
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the api package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+TokenHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", slog.Any("err", err))
				writeError(w, http.StatusInternalServerError, "Server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware verifies the x-auth-token header and stores the caller's
// identity in the request context.
func AuthMiddleware(issuer *token.Issuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get(TokenHeader)
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			ident, err := issuer.Verify(tokenStr)
			if err != nil {
				logger.Warn("token verification failed", slog.Any("err", err))
				writeError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), CtxIdentity, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom extracts the verified caller set by AuthMiddleware.
func identityFrom(r *http.Request) (*token.Identity, bool) {
	ident, ok := r.Context().Value(CtxIdentity).(*token.Identity)
	return ident, ok
}
