package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/review/internal/remark"
	"github.com/garnizeh/review/pkg/models"
)

// RemarkService is the subset of *remark.Service the handlers need.
type RemarkService interface {
	SaveRemark(ctx context.Context, submissionID, text string) (*models.Submission, error)
	RemarksForProject(ctx context.Context, projectID string) ([]remark.ProjectRemark, error)
	MarkRead(ctx context.Context, submissionID, menteeID string) (*models.RemarkRead, error)
	IsUnread(ctx context.Context, submissionID, menteeID string) (bool, error)
	UnreadCount(ctx context.Context, menteeID string, projectID *string) (int, error)
}

var _ RemarkService = (*remark.Service)(nil)

type RemarksHandler struct {
	svc RemarkService
}

func NewRemarksHandler(svc RemarkService) *RemarksHandler {
	return &RemarksHandler{svc: svc}
}

type saveRemarkRequest struct {
	SubmissionID string  `json:"submissionId" validate:"notblank"`
	Remark       *string `json:"remark" validate:"required,max=10000"`
}

type markReadRequest struct {
	MenteeID string `json:"menteeId"`
}

// SaveRemark lets a mentor write, replace or clear (empty text) the remark on
// a submission.
func (h *RemarksHandler) SaveRemark(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	if id.Role != models.RoleMentor {
		writeError(w, http.StatusForbidden, "only mentors can write remarks")
		return
	}

	var req saveRemarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.SaveRemark(r.Context(), req.SubmissionID, *req.Remark)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "remark saved"
	if !sub.HasRemark() {
		msg = "remark cleared"
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: sub})
}

func (h *RemarksHandler) ListProjectRemarks(w http.ResponseWriter, r *http.Request) {
	if _, ok := IdentityFrom(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	remarks, err := h.svc.RemarksForProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	count := len(remarks)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: remarks, Count: &count})
}

// MarkRead records that the caller has seen the current remark. The recipient
// is always the session identity; naming anyone else in the body is refused.
func (h *RemarksHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req markReadRequest
	if r.Body != nil {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
	}
	if m := strings.TrimSpace(req.MenteeID); m != "" && m != id.UserID {
		writeError(w, http.StatusForbidden, "cannot mark remarks read for another user")
		return
	}

	rr, err := h.svc.MarkRead(r.Context(), mux.Vars(r)["submissionId"], id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "remark marked as read", Data: rr})
}

func (h *RemarksHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	menteeID, ok := scopedMentee(w, r)
	if !ok {
		return
	}

	var projectID *string
	if p := strings.TrimSpace(r.URL.Query().Get("projectId")); p != "" {
		projectID = &p
	}

	n, err := h.svc.UnreadCount(r.Context(), menteeID, projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &n})
}

func (h *RemarksHandler) IsUnread(w http.ResponseWriter, r *http.Request) {
	menteeID, ok := scopedMentee(w, r)
	if !ok {
		return
	}

	unread, err := h.svc.IsUnread(r.Context(), mux.Vars(r)["submissionId"], menteeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, IsUnread: &unread})
}

// scopedMentee resolves the menteeId query parameter against the session.
// It defaults to the caller; mentees may only ask about themselves while
// mentors may ask about anyone.
func scopedMentee(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}

	menteeID := strings.TrimSpace(r.URL.Query().Get("menteeId"))
	if menteeID == "" {
		return id.UserID, true
	}
	if id.Role != models.RoleMentor && menteeID != id.UserID {
		writeError(w, http.StatusForbidden, "cannot read another user's remark state")
		return "", false
	}
	return menteeID, true
}
