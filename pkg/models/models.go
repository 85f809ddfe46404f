package models

import "time"

// Domain models matching the database schema in db/migrations/.

type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Created      time.Time `json:"created"`
}

// Submission is a mentee's deliverable for one review stage of a project.
// RemarkUpdatedAt is set if and only if Remark is set.
type Submission struct {
	ID              string     `json:"id"`
	MenteeID        string     `json:"mentee_id"`
	ProjectID       string     `json:"project_id"`
	StageKey        string     `json:"stage_key"`
	Remark          *string    `json:"remark"`
	RemarkUpdatedAt *time.Time `json:"remark_updated_at"`
	Created         time.Time  `json:"created"`
}

func (s *Submission) HasRemark() bool {
	return s != nil && s.Remark != nil
}

// RemarkRead records the latest acknowledgment of a submission's remark by
// its mentee. There is at most one per (SubmissionID, MenteeID).
type RemarkRead struct {
	SubmissionID string    `json:"submission_id"`
	MenteeID     string    `json:"mentee_id"`
	ReadAt       time.Time `json:"read_at"`
}

// SubmissionReadState is a submission joined with the read record of the
// mentee the listing was scoped to. ReadAt is nil when no record exists.
type SubmissionReadState struct {
	Submission
	ReadAt *time.Time `json:"read_at,omitempty"`
}
