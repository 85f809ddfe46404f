package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/review/pkg/models"
)

// submissionRow doubles as the scan target for the read-state joins; ReadAt
// stays invalid for plain submission queries.
type submissionRow struct {
	ID              string         `db:"id"`
	MenteeID        string         `db:"mentee_id"`
	ProjectID       string         `db:"project_id"`
	StageKey        string         `db:"stage_key"`
	Remark          sql.NullString `db:"remark"`
	RemarkUpdatedAt sql.NullInt64  `db:"remark_updated_at"`
	Created         int64          `db:"created"`
	ReadAt          sql.NullInt64  `db:"read_at"`
}

func (r submissionRow) model() models.Submission {
	return models.Submission{
		ID:              r.ID,
		MenteeID:        r.MenteeID,
		ProjectID:       r.ProjectID,
		StageKey:        r.StageKey,
		Remark:          stringPtr(r.Remark),
		RemarkUpdatedAt: timePtr(r.RemarkUpdatedAt),
		Created:         fromMicros(r.Created),
	}
}

func (r submissionRow) readState() models.SubmissionReadState {
	return models.SubmissionReadState{Submission: r.model(), ReadAt: timePtr(r.ReadAt)}
}

const submissionColumns = `id, mentee_id, project_id, stage_key, remark, remark_updated_at, created`

const readStateColumns = `s.id, s.mentee_id, s.project_id, s.stage_key, s.remark, s.remark_updated_at, s.created, rr.read_at`

func (r *SQLiteRepo) CreateSubmission(ctx context.Context, s *models.Submission) error {
	if s == nil {
		return fmt.Errorf("submission is nil")
	}
	if (s.Remark == nil) != (s.RemarkUpdatedAt == nil) {
		return fmt.Errorf("submission %s: remark and remark_updated_at must be set together", s.ID)
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.MenteeID, s.ProjectID, s.StageKey, nullString(s.Remark), nullMicros(s.RemarkUpdatedAt), toMicros(s.Created))
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var row submissionRow
	if err := r.conn.Get(ctx, &row, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	s := row.model()
	return &s, nil
}

func (r *SQLiteRepo) UpdateSubmissionRemark(ctx context.Context, id string, remark *string, at *time.Time) (*models.Submission, error) {
	if (remark == nil) != (at == nil) {
		return nil, fmt.Errorf("update submission %s: remark and remark_updated_at must be set together", id)
	}

	var row submissionRow
	err := r.conn.Get(ctx, &row,
		`UPDATE submissions SET remark = ?, remark_updated_at = ? WHERE id = ? RETURNING `+submissionColumns,
		nullString(remark), nullMicros(at), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update submission remark: %w", err)
	}

	r.logger.Debug("submission remark updated", "submission_id", id, "cleared", remark == nil)
	s := row.model()
	return &s, nil
}

func (r *SQLiteRepo) ListSubmissionsWithRemark(ctx context.Context, projectID string) ([]models.SubmissionReadState, error) {
	var rows []submissionRow
	err := r.conn.Select(ctx, &rows, `SELECT `+readStateColumns+`
		FROM submissions s
		LEFT JOIN remark_reads rr ON rr.submission_id = s.id AND rr.mentee_id = s.mentee_id
		WHERE s.project_id = ? AND s.remark IS NOT NULL
		ORDER BY s.remark_updated_at DESC, s.id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list submissions with remark: %w", err)
	}
	return readStates(rows), nil
}

func (r *SQLiteRepo) ListSubmissions(ctx context.Context, menteeID string, projectID *string) ([]models.SubmissionReadState, error) {
	var rows []submissionRow
	err := r.conn.Select(ctx, &rows, `SELECT `+readStateColumns+`
		FROM submissions s
		LEFT JOIN remark_reads rr ON rr.submission_id = s.id AND rr.mentee_id = ?
		WHERE s.mentee_id = ? AND (? IS NULL OR s.project_id = ?)
		ORDER BY s.id ASC`, menteeID, menteeID, nullString(projectID), nullString(projectID))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return readStates(rows), nil
}

func readStates(rows []submissionRow) []models.SubmissionReadState {
	out := make([]models.SubmissionReadState, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.readState())
	}
	return out
}
