package remark

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/review/pkg/models"
	"github.com/garnizeh/review/pkg/repository"
)

// Operation names reported to the Observer.
const (
	OpSaveRemark         = "save_remark"
	OpListProjectRemarks = "list_project_remarks"
	OpMarkRead           = "mark_read"
	OpIsUnread           = "is_unread"
	OpUnreadCount        = "unread_count"
)

// Clock returns the current time. Injected so ordering tests are deterministic.
type Clock func() time.Time

// Observer is notified once per service call with the call's outcome.
type Observer interface {
	Observe(op string, err error)
}

type nopObserver struct{}

func (nopObserver) Observe(string, error) {}

// ProjectRemark is a submission carrying a remark, flagged with whether its
// recipient has seen the current remark text.
type ProjectRemark struct {
	models.Submission
	Unread bool `json:"unread"`
}

// Service delivers mentor remarks to mentees and tracks whether they have been
// read. It holds no mutable state; all state lives in the store.
type Service struct {
	store    repository.RemarkStore
	clock    Clock
	logger   *slog.Logger
	observer Observer
}

func NewService(store repository.RemarkStore, clock Clock, logger *slog.Logger, observer Observer) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{store: store, clock: clock, logger: logger, observer: observer}
}

// now is truncated to the store's timestamp resolution so values read back
// compare equal to the ones written.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// SaveRemark writes or clears the remark on a submission. Blank text clears
// it. Existing read records are left alone, so a rewritten remark reads as
// unread until the mentee acknowledges it again.
func (s *Service) SaveRemark(ctx context.Context, submissionID, text string) (sub *models.Submission, err error) {
	defer func() { s.observer.Observe(OpSaveRemark, err) }()

	if strings.TrimSpace(submissionID) == "" {
		return nil, fmt.Errorf("save remark: submission id is required: %w", ErrInvalidArgument)
	}

	existing, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, storeErr("save remark", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("save remark %s: %w", submissionID, ErrNotFound)
	}

	var (
		remark *string
		at     *time.Time
	)
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		now := s.now()
		remark, at = &trimmed, &now
	}

	updated, err := s.store.UpdateSubmissionRemark(ctx, submissionID, remark, at)
	if err != nil {
		return nil, storeErr("save remark", err)
	}
	if updated == nil {
		// removed between the lookup and the write
		return nil, fmt.Errorf("save remark %s: %w", submissionID, ErrNotFound)
	}

	s.logger.Info("remark saved",
		slog.String("submission_id", submissionID),
		slog.String("project_id", updated.ProjectID),
		slog.Bool("cleared", remark == nil),
	)
	return updated, nil
}

// RemarksForProject lists the project's submissions that carry a remark, most
// recently written first, ties broken by id. Each entry is flagged with the
// recipient's unread state.
func (s *Service) RemarksForProject(ctx context.Context, projectID string) (out []ProjectRemark, err error) {
	defer func() { s.observer.Observe(OpListProjectRemarks, err) }()

	rows, err := s.store.ListSubmissionsWithRemark(ctx, projectID)
	if err != nil {
		return nil, storeErr("list project remarks", err)
	}

	out = make([]ProjectRemark, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProjectRemark{
			Submission: row.Submission,
			Unread:     IsUnread(row.HasRemark(), row.RemarkUpdatedAt, row.ReadAt),
		})
	}
	return out, nil
}

// MarkRead records that menteeID has seen the submission's current remark.
// Repeated calls are safe and leave read_at at the latest call's time.
func (s *Service) MarkRead(ctx context.Context, submissionID, menteeID string) (rr *models.RemarkRead, err error) {
	defer func() { s.observer.Observe(OpMarkRead, err) }()

	if strings.TrimSpace(menteeID) == "" {
		return nil, fmt.Errorf("mark read: mentee id is required: %w", ErrInvalidArgument)
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, storeErr("mark read", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("mark read %s: %w", submissionID, ErrNotFound)
	}
	if err := CheckRecipient(sub, menteeID); err != nil {
		s.logger.Warn("mark read rejected",
			slog.String("submission_id", submissionID),
			slog.String("mentee_id", menteeID),
		)
		return nil, err
	}

	rr, err = s.store.UpsertReadRecord(ctx, submissionID, menteeID, s.now())
	if err != nil {
		return nil, storeErr("mark read", err)
	}
	return rr, nil
}

// IsUnread reports whether the submission's remark is unread for menteeID.
// Unlike UnreadCount, an unknown submission is an error.
func (s *Service) IsUnread(ctx context.Context, submissionID, menteeID string) (unread bool, err error) {
	defer func() { s.observer.Observe(OpIsUnread, err) }()

	if strings.TrimSpace(menteeID) == "" {
		return false, fmt.Errorf("is unread: mentee id is required: %w", ErrInvalidArgument)
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return false, storeErr("is unread", err)
	}
	if sub == nil {
		return false, fmt.Errorf("is unread %s: %w", submissionID, ErrNotFound)
	}

	rr, err := s.store.GetReadRecord(ctx, submissionID, menteeID)
	if err != nil {
		return false, storeErr("is unread", err)
	}

	var readAt *time.Time
	if rr != nil {
		readAt = &rr.ReadAt
	}
	return IsUnread(sub.HasRemark(), sub.RemarkUpdatedAt, readAt), nil
}

// UnreadCount counts the mentee's submissions whose remark is unread,
// optionally limited to one project. A mentee with nothing to read gets 0.
func (s *Service) UnreadCount(ctx context.Context, menteeID string, projectID *string) (count int, err error) {
	defer func() { s.observer.Observe(OpUnreadCount, err) }()

	if strings.TrimSpace(menteeID) == "" {
		return 0, fmt.Errorf("unread count: mentee id is required: %w", ErrInvalidArgument)
	}

	rows, err := s.store.ListSubmissions(ctx, menteeID, projectID)
	if err != nil {
		return 0, storeErr("unread count", err)
	}

	for _, row := range rows {
		if IsUnread(row.HasRemark(), row.RemarkUpdatedAt, row.ReadAt) {
			count++
		}
	}
	return count, nil
}
