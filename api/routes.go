package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/review/internal/config"
	"github.com/garnizeh/review/internal/db"
	"github.com/garnizeh/review/internal/metrics"
	"github.com/garnizeh/review/internal/remark"
	"github.com/garnizeh/review/internal/repository/sqlite"
	"github.com/garnizeh/review/pkg/repository"
)

// RouterDeps carries everything the HTTP surface needs. Metrics and DB may be
// nil.
type RouterDeps struct {
	JWTSecret     string
	TokenDuration time.Duration
	CORSOrigin    string
	Version       string
	BuildTime     string

	Users       repository.UserRepo
	Submissions repository.SubmissionRepo
	Remarks     RemarkService
	DB          Pinger
	Metrics     *metrics.Metrics
}

// SetupRoutes wires the SQLite-backed repositories and the remark service
// into a router.
func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB, m *metrics.Metrics) *mux.Router {
	repo := sqlite.New(conn, logger)
	var observer remark.Observer
	if m != nil {
		observer = m
	}
	svc := remark.NewService(repo, nil, logger, observer)

	return NewRouter(RouterDeps{
		JWTSecret:     cfg.JWTSecret,
		TokenDuration: cfg.TokenDuration,
		CORSOrigin:    cfg.CORSOrigin,
		Version:       version,
		BuildTime:     buildTime,
		Users:         repo,
		Submissions:   repo,
		Remarks:       svc,
		DB:            conn,
		Metrics:       m,
	})
}

func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
	}
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware(deps.CORSOrigin))
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := NewSystemHandler(deps.DB)
	authHandler := NewAuthHandler(deps.Users, deps.JWTSecret, deps.TokenDuration)
	submissionsHandler := NewSubmissionsHandler(deps.Submissions)
	remarksHandler := NewRemarksHandler(deps.Remarks)

	// preflight requests only need the CORS headers
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(deps.Version, deps.BuildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(deps.JWTSecret))

	apiV1.HandleFunc("/submissions", submissionsHandler.CreateSubmission).Methods("POST")

	// the literal unread/count path must be registered before {projectId}
	apiV1.HandleFunc("/remarks", remarksHandler.SaveRemark).Methods("POST")
	apiV1.HandleFunc("/remarks/unread/count", remarksHandler.UnreadCount).Methods("GET")
	apiV1.HandleFunc("/remarks/{submissionId}/read", remarksHandler.MarkRead).Methods("POST")
	apiV1.HandleFunc("/remarks/{submissionId}/unread", remarksHandler.IsUnread).Methods("GET")
	apiV1.HandleFunc("/remarks/{projectId}", remarksHandler.ListProjectRemarks).Methods("GET")

	return r
}
