package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/review/pkg/models"
	"github.com/garnizeh/review/pkg/repository"
)

type SubmissionsHandler struct {
	submissionRepo repository.SubmissionRepo
}

func NewSubmissionsHandler(sr repository.SubmissionRepo) *SubmissionsHandler {
	return &SubmissionsHandler{submissionRepo: sr}
}

type createSubmissionRequest struct {
	ProjectID string `json:"projectId" validate:"notblank,max=200"`
	StageKey  string `json:"stageKey" validate:"notblank,max=100"`
}

// CreateSubmission registers a new, remark-less submission owned by the
// calling mentee.
func (h *SubmissionsHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if id.Role != models.RoleMentee {
		writeError(w, http.StatusForbidden, "only mentees can submit")
		return
	}

	var req createSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub := &models.Submission{
		ID:        uuid.NewString(),
		MenteeID:  id.UserID,
		ProjectID: strings.TrimSpace(req.ProjectID),
		StageKey:  strings.TrimSpace(req.StageKey),
		Created:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := h.submissionRepo.CreateSubmission(r.Context(), sub); err != nil {
		logger.Error("failed to store submission", slog.Any("err", err))
		writeError(w, http.StatusServiceUnavailable, "failed to store submission")
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "submission created", Data: sub})
}
