package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/review/pkg/models"
)

type remarkReadRow struct {
	SubmissionID string `db:"submission_id"`
	MenteeID     string `db:"mentee_id"`
	ReadAt       int64  `db:"read_at"`
}

func (r remarkReadRow) model() *models.RemarkRead {
	return &models.RemarkRead{SubmissionID: r.SubmissionID, MenteeID: r.MenteeID, ReadAt: fromMicros(r.ReadAt)}
}

func (r *SQLiteRepo) GetReadRecord(ctx context.Context, submissionID, menteeID string) (*models.RemarkRead, error) {
	var row remarkReadRow
	err := r.conn.Get(ctx, &row, `SELECT submission_id, mentee_id, read_at FROM remark_reads WHERE submission_id = ? AND mentee_id = ?`, submissionID, menteeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get read record: %w", err)
	}
	return row.model(), nil
}

func (r *SQLiteRepo) UpsertReadRecord(ctx context.Context, submissionID, menteeID string, at time.Time) (*models.RemarkRead, error) {
	var row remarkReadRow
	err := r.conn.Get(ctx, &row, `INSERT INTO remark_reads (submission_id, mentee_id, read_at) VALUES (?, ?, ?)
		ON CONFLICT(submission_id, mentee_id) DO UPDATE SET read_at = excluded.read_at
		RETURNING submission_id, mentee_id, read_at`, submissionID, menteeID, toMicros(at))
	if err != nil {
		return nil, fmt.Errorf("upsert read record: %w", err)
	}
	return row.model(), nil
}
