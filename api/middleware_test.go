package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/mkarpis/jobtrail/api"
	"github.com/mkarpis/jobtrail/internal/token"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, api.TokenHeader) {
		t.Fatalf("expected token header allowed, got %q", got)
	}

	// GET should pass through
	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	if wGet.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", wGet.Result().StatusCode)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := api.RecoveryMiddleware(pan)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"success":false`) {
		t.Fatalf("expected error envelope, got %s", string(b))
	}
}

func authProtectedRouter(issuer *token.Issuer) *mux.Router {
	r := mux.NewRouter()
	r.Use(api.AuthMiddleware(issuer))
	r.HandleFunc("/protected", func(w http.ResponseWriter, r *http.Request) {
		ident, ok := r.Context().Value(api.CtxIdentity).(*token.Identity)
		if !ok {
			http.Error(w, "no identity", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, ident.Name)
	}).Methods("GET")
	return r
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	issuer := token.NewIssuer("testsecret", time.Hour)
	r := authProtectedRouter(issuer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "No token") {
		t.Fatalf("expected no-token message, got %s", string(b))
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	issuer := token.NewIssuer("testsecret", time.Hour)
	r := authProtectedRouter(issuer)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(api.TokenHeader, "garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "Token is not valid") {
		t.Fatalf("expected invalid-token message, got %s", string(b))
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	issuer := token.NewIssuer("testsecret", time.Hour)
	r := authProtectedRouter(issuer)

	str, err := issuer.Issue(3, "Carol")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(api.TokenHeader, str)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for valid token, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "Carol" {
		t.Fatalf("expected identity name in body, got %q", string(b))
	}
}

func TestAuthMiddlewareLegacyToken(t *testing.T) {
	issuer := token.NewIssuer("testsecret", time.Hour)
	r := authProtectedRouter(issuer)

	// flat legacy shape minted by an older deployment
	claims := jwt.MapClaims{"userId": 3, "exp": time.Now().Add(time.Hour).Unix()}
	str, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("testsecret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(api.TokenHeader, str)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for legacy token, got %d", w.Result().StatusCode)
	}
}
