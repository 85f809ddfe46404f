package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/review/api"
	"github.com/garnizeh/review/pkg/models"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware("https://review.example")(next)

	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	if wOpt.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", wOpt.Code)
	}
	if called {
		t.Fatalf("OPTIONS must not reach the next handler")
	}
	if got := wOpt.Header().Get("Access-Control-Allow-Origin"); got != "https://review.example" {
		t.Fatalf("unexpected allow-origin header %q", got)
	}

	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, httptest.NewRequest(http.MethodGet, "/cors", nil))
	if wGet.Code != http.StatusOK || !called {
		t.Fatalf("GET should pass through, got %d", wGet.Code)
	}

	wDefault := httptest.NewRecorder()
	api.CORSMiddleware("")(next).ServeHTTP(wDefault, httptest.NewRequest(http.MethodGet, "/cors", nil))
	if got := wDefault.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin by default, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	api.RecoveryMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	var seen api.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := api.IdentityFrom(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	handler := api.JWTAuthMiddlewareWithSecret(testSecret)(next)

	expired := signClaims(t, jwt.MapClaims{"sub": "u1", "role": "mentee", "exp": time.Now().Add(-time.Minute).Unix()})
	noRole := signClaims(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	noExp := signClaims(t, jwt.MapClaims{"sub": "u1", "role": "mentee"})
	badRole := signClaims(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1", "role": "mentee", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "no expiry", header: "Bearer " + noExp, wantStatus: http.StatusUnauthorized},
		{name: "no role", header: "Bearer " + noRole, wantStatus: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + badRole, wantStatus: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + otherKey, wantStatus: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + tokenFor(t, "u1", models.RoleMentee), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	assert.Equal(t, api.Identity{UserID: "u1", Role: models.RoleMentee}, seen)
}

func TestIdentityFrom_Empty(t *testing.T) {
	_, ok := api.IdentityFrom(t.Context())
	assert.False(t, ok)

	ctx := api.WithIdentity(t.Context(), api.Identity{})
	_, ok = api.IdentityFrom(ctx)
	assert.False(t, ok, "an identity without a user id is not a session")
}

func TestPreflightThroughRouter(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodOptions, "/v1/remarks", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://review.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsUseRouteTemplates(t *testing.T) {
	env := newEnv(t)
	env.addSubmission(t, "s1", menteeID, "p1")
	mentee := tokenFor(t, menteeID, models.RoleMentee)

	for _, id := range []string{"s1", "missing"} {
		env.do(t, http.MethodGet, "/v1/remarks/"+id+"/unread", mentee, nil)
	}

	w := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `review_http_requests_total{method="GET",route="/v1/remarks/{submissionId}/unread",status="200"} 1`)
	assert.Contains(t, body, `review_http_requests_total{method="GET",route="/v1/remarks/{submissionId}/unread",status="404"} 1`)
	assert.NotContains(t, body, `route="/v1/remarks/s1/unread"`)
	assert.Contains(t, body, `review_remark_operations_total{op="is_unread",result="ok"} 1`)
	assert.Contains(t, body, `review_remark_operations_total{op="is_unread",result="not_found"} 1`)
}
