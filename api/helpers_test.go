package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/garnizeh/review/api"
	"github.com/garnizeh/review/internal/metrics"
	"github.com/garnizeh/review/internal/remark"
	"github.com/garnizeh/review/pkg/models"
	"github.com/garnizeh/review/pkg/repository/mock"
)

const testSecret = "testsecret"

func TestMain(m *testing.M) {
	api.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	store   *mock.Store
	metrics *metrics.Metrics
	router  http.Handler
}

// tickingClock advances one second per call so every service write lands on
// a distinct instant.
func tickingClock() remark.Clock {
	var mu sync.Mutex
	cur := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := mock.NewStore()
	m := metrics.New()
	svc := remark.NewService(store, tickingClock(), nil, m)

	router := api.NewRouter(api.RouterDeps{
		JWTSecret:     testSecret,
		TokenDuration: time.Hour,
		CORSOrigin:    "https://review.example",
		Version:       "test",
		BuildTime:     "now",
		Users:         store,
		Submissions:   store,
		Remarks:       svc,
		Metrics:       m,
	})
	return &testEnv{store: store, metrics: m, router: router}
}

func (e *testEnv) addSubmission(t *testing.T, id, menteeID, projectID string) {
	t.Helper()
	err := e.store.CreateSubmission(context.Background(), &models.Submission{
		ID: id, MenteeID: menteeID, ProjectID: projectID, StageKey: "idea",
		Created: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func tokenFor(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	return signClaims(t, jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelopeResp struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Count    *int            `json:"count"`
	IsUnread *bool           `json:"isUnread"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeResp {
	t.Helper()
	var env envelopeResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}
