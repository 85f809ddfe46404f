package remark

import (
	"fmt"

	"github.com/garnizeh/review/pkg/models"
)

// CheckRecipient returns ErrForbidden unless menteeID is the submission's
// recipient. It guards every mutation tied to a recipient.
func CheckRecipient(s *models.Submission, menteeID string) error {
	if s == nil || s.MenteeID == "" || s.MenteeID != menteeID {
		return fmt.Errorf("mark read %s as %q: %w", submissionID(s), menteeID, ErrForbidden)
	}
	return nil
}

func submissionID(s *models.Submission) string {
	if s == nil {
		return "<nil>"
	}
	return s.ID
}
