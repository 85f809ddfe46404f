package repository

import (
	"context"
	"time"

	"github.com/garnizeh/review/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Lookups return (nil, nil) when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type SubmissionRepo interface {
	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	// UpdateSubmissionRemark writes remark and remark_updated_at in a single
	// statement and returns the updated row. remark and at must both be nil
	// or both be set.
	UpdateSubmissionRemark(ctx context.Context, id string, remark *string, at *time.Time) (*models.Submission, error)
	// ListSubmissionsWithRemark returns the project's submissions that carry a
	// remark, joined with their own mentee's read record, ordered by
	// remark_updated_at descending then id ascending.
	ListSubmissionsWithRemark(ctx context.Context, projectID string) ([]models.SubmissionReadState, error)
	// ListSubmissions returns the mentee's submissions, optionally limited to
	// one project, joined with that mentee's read records.
	ListSubmissions(ctx context.Context, menteeID string, projectID *string) ([]models.SubmissionReadState, error)
}

type RemarkReadRepo interface {
	GetReadRecord(ctx context.Context, submissionID, menteeID string) (*models.RemarkRead, error)
	// UpsertReadRecord inserts the record or, on a (submission_id, mentee_id)
	// conflict, overwrites read_at.
	UpsertReadRecord(ctx context.Context, submissionID, menteeID string, at time.Time) (*models.RemarkRead, error)
}

// RemarkStore is everything the remark service needs from the durable store.
type RemarkStore interface {
	SubmissionRepo
	RemarkReadRepo
}
