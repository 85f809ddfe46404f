// Package seed loads demo users and submissions from a YAML fixture.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/garnizeh/review/pkg/models"
	"github.com/garnizeh/review/pkg/repository"
)

type Fixture struct {
	Users       []User       `yaml:"users" validate:"dive"`
	Submissions []Submission `yaml:"submissions" validate:"dive"`
}

type User struct {
	ID       string `yaml:"id" validate:"omitempty,uuid"`
	Name     string `yaml:"name" validate:"required"`
	Email    string `yaml:"email" validate:"required,email"`
	Role     string `yaml:"role" validate:"required,oneof=mentor mentee"`
	Password string `yaml:"password" validate:"required,min=6"`
}

type Submission struct {
	ID        string `yaml:"id" validate:"omitempty,uuid"`
	MenteeID  string `yaml:"mentee_id" validate:"required"`
	ProjectID string `yaml:"project_id" validate:"required"`
	StageKey  string `yaml:"stage_key" validate:"required"`
	Remark    string `yaml:"remark"`
}

// RemarkWriter stores a mentor remark; *remark.Service satisfies it.
type RemarkWriter interface {
	SaveRemark(ctx context.Context, submissionID, text string) (*models.Submission, error)
}

// Result counts what Apply inserted and what was already there.
type Result struct {
	UsersCreated       int
	UsersSkipped       int
	SubmissionsCreated int
	SubmissionsSkipped int
	RemarksSaved       int
}

var validate = validator.New()

// Parse decodes and validates a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

// Load reads and parses the named fixture from fsys.
func Load(fsys fs.FS, name string) (*Fixture, error) {
	fh, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Seeder writes fixtures through the repositories.
type Seeder struct {
	users       repository.UserRepo
	submissions repository.SubmissionRepo
	remarks     RemarkWriter
	logger      *slog.Logger
	now         func() time.Time
}

func New(users repository.UserRepo, submissions repository.SubmissionRepo, remarks RemarkWriter, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{users: users, submissions: submissions, remarks: remarks, logger: logger, now: time.Now}
}

// Apply inserts the fixture's rows. Users already registered under the same
// email and submissions whose id already exists are left untouched, so
// running it twice is harmless.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Result, error) {
	var res Result
	if f == nil {
		return res, errors.New("nil fixture")
	}

	for _, fu := range f.Users {
		email := strings.ToLower(strings.TrimSpace(fu.Email))
		existing, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return res, fmt.Errorf("look up user %s: %w", email, err)
		}
		if existing != nil {
			res.UsersSkipped++
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.DefaultCost)
		if err != nil {
			return res, fmt.Errorf("hash password for %s: %w", email, err)
		}
		u := &models.User{
			ID:           orNewID(fu.ID),
			Name:         fu.Name,
			Email:        email,
			Role:         models.Role(fu.Role),
			PasswordHash: string(hash),
			Created:      s.now().UTC(),
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return res, fmt.Errorf("create user %s: %w", email, err)
		}
		res.UsersCreated++
		s.logger.Debug("seeded user", slog.String("email", email), slog.String("role", fu.Role))
	}

	for _, fsub := range f.Submissions {
		id := orNewID(fsub.ID)
		if fsub.ID != "" {
			existing, err := s.submissions.GetSubmission(ctx, id)
			if err != nil {
				return res, fmt.Errorf("look up submission %s: %w", id, err)
			}
			if existing != nil {
				res.SubmissionsSkipped++
				continue
			}
		}

		sub := &models.Submission{
			ID:        id,
			MenteeID:  fsub.MenteeID,
			ProjectID: fsub.ProjectID,
			StageKey:  fsub.StageKey,
			Created:   s.now().UTC().Truncate(time.Microsecond),
		}
		if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
			return res, fmt.Errorf("create submission %s: %w", id, err)
		}
		res.SubmissionsCreated++

		if strings.TrimSpace(fsub.Remark) == "" || s.remarks == nil {
			continue
		}
		if _, err := s.remarks.SaveRemark(ctx, id, fsub.Remark); err != nil {
			return res, fmt.Errorf("save remark on %s: %w", id, err)
		}
		res.RemarksSaved++
	}

	s.logger.Info("seed applied",
		slog.Int("users_created", res.UsersCreated),
		slog.Int("users_skipped", res.UsersSkipped),
		slog.Int("submissions_created", res.SubmissionsCreated),
		slog.Int("submissions_skipped", res.SubmissionsSkipped),
		slog.Int("remarks_saved", res.RemarksSaved),
	)
	return res, nil
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
