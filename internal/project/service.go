// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package project

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/store"
)

// Service enforces the assignment invariants: both referenced accounts
// exist, project codes are unique, and a student owns at most one project.
type Service struct {
	tx       store.TxRunner
	projects Repository
	tutors   identity.TutorRepository
	students identity.StudentRepository
}

// NewService creates a project Service.
func NewService(tx store.TxRunner, projects Repository, tutors identity.TutorRepository, students identity.StudentRepository) *Service {
	return &Service{tx: tx, projects: projects, tutors: tutors, students: students}
}

// Create validates and persists a new project inside one transaction:
// both referenced accounts must exist, the student must not already own a
// project, and the code must be unused.
func (s *Service) Create(ctx context.Context, in NewProject) (*Project, error) {
	var created *Project
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkStudentExists(ctx, in.StudentID); err != nil {
			return err
		}
		if err := s.checkTutorExists(ctx, in.TutorID); err != nil {
			return err
		}

		assigned, err := s.projects.ExistsByStudentID(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if assigned {
			return oops.Code("PROJECT_STUDENT_ASSIGNED").
				With("student_id", in.StudentID.String()).
				Wrapf(fault.ErrConflict, "the student already has a project")
		}

		code := strings.TrimSpace(in.Code)
		title := strings.TrimSpace(in.Title)
		summary := strings.TrimSpace(in.Summary)
		if code == "" || title == "" || summary == "" {
			return oops.Code("PROJECT_FIELDS_REQUIRED").
				Wrapf(fault.ErrValidation, "code, title and summary are required")
		}

		taken, err := s.projects.ExistsByCode(ctx, code)
		if err != nil {
			return err
		}
		if taken {
			return oops.Code("PROJECT_CODE_TAKEN").
				With("code", code).
				Wrapf(fault.ErrConflict, "duplicate project code: %s", code)
		}

		if _, err := ParseStatus(string(in.Status)); err != nil {
			return err
		}
		if err := checkScore(in.FinalScore); err != nil {
			return err
		}

		now := time.Now()
		p := &Project{
			ID:            ulid.Make(),
			Code:          code,
			Title:         title,
			Summary:       summary,
			Objectives:    strings.TrimSpace(in.Objectives),
			SubjectArea:   strings.TrimSpace(in.SubjectArea),
			Keywords:      strings.TrimSpace(in.Keywords),
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			Status:        in.Status,
			FinalScore:    in.FinalScore,
			RepositoryURL: strings.TrimSpace(in.RepositoryURL),
			DocumentURL:   strings.TrimSpace(in.DocumentURL),
			TutorID:       in.TutorID,
			StudentID:     in.StudentID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.projects.Create(ctx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces a project's fields. Code uniqueness is re-checked when
// the code changes; the one-project-per-student invariant is re-checked
// when the student reference changes, excluding the project's own prior
// assignment; a changed tutor reference is re-validated for existence.
func (s *Service) Update(ctx context.Context, id ulid.ULID, in UpdateProject) (*Project, error) {
	var updated *Project
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}

		code := strings.TrimSpace(in.Code)
		title := strings.TrimSpace(in.Title)
		summary := strings.TrimSpace(in.Summary)
		if code == "" || title == "" || summary == "" {
			return oops.Code("PROJECT_FIELDS_REQUIRED").
				Wrapf(fault.ErrValidation, "code, title and summary are required")
		}

		if err := s.checkCodeChanged(ctx, db, code); err != nil {
			return err
		}
		if _, err := ParseStatus(string(in.Status)); err != nil {
			return err
		}
		if err := checkScore(in.FinalScore); err != nil {
			return err
		}

		if in.TutorID != nil {
			if err := s.checkTutorExists(ctx, *in.TutorID); err != nil {
				return err
			}
			db.TutorID = *in.TutorID
		}
		if in.StudentID != nil {
			if err := s.checkStudentReassign(ctx, db, *in.StudentID); err != nil {
				return err
			}
			db.StudentID = *in.StudentID
		}

		db.Code = code
		db.Title = title
		db.Summary = summary
		db.Objectives = strings.TrimSpace(in.Objectives)
		db.SubjectArea = strings.TrimSpace(in.SubjectArea)
		db.Keywords = strings.TrimSpace(in.Keywords)
		db.StartDate = in.StartDate
		db.EndDate = in.EndDate
		db.Status = in.Status
		db.FinalScore = in.FinalScore
		db.RepositoryURL = strings.TrimSpace(in.RepositoryURL)
		db.DocumentURL = strings.TrimSpace(in.DocumentURL)
		db.UpdatedAt = time.Now()

		if err := s.projects.Update(ctx, db); err != nil {
			return err
		}
		updated = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PatchProject applies only the fields present in p, re-checking the
// affected invariants.
func (s *Service) PatchProject(ctx context.Context, id ulid.ULID, p Patch) (*Project, error) {
	var patched *Project
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if p.Code != nil {
			code := strings.TrimSpace(*p.Code)
			if code == "" {
				return oops.Code("PROJECT_FIELDS_REQUIRED").
					Wrapf(fault.ErrValidation, "code cannot be blank")
			}
			if err := s.checkCodeChanged(ctx, db, code); err != nil {
				return err
			}
			db.Code = code
		}
		if p.Title != nil {
			db.Title = strings.TrimSpace(*p.Title)
		}
		if p.Summary != nil {
			db.Summary = strings.TrimSpace(*p.Summary)
		}
		if p.Objectives != nil {
			db.Objectives = strings.TrimSpace(*p.Objectives)
		}
		if p.SubjectArea != nil {
			db.SubjectArea = strings.TrimSpace(*p.SubjectArea)
		}
		if p.Keywords != nil {
			db.Keywords = strings.TrimSpace(*p.Keywords)
		}
		if p.StartDate != nil {
			db.StartDate = p.StartDate
		}
		if p.EndDate != nil {
			db.EndDate = p.EndDate
		}
		if p.Status != nil {
			status, err := ParseStatus(string(*p.Status))
			if err != nil {
				return err
			}
			db.Status = status
		}
		if p.ClearFinalScore {
			db.FinalScore = nil
		} else if p.FinalScore != nil {
			if err := checkScore(p.FinalScore); err != nil {
				return err
			}
			db.FinalScore = p.FinalScore
		}
		if p.RepositoryURL != nil {
			db.RepositoryURL = strings.TrimSpace(*p.RepositoryURL)
		}
		if p.DocumentURL != nil {
			db.DocumentURL = strings.TrimSpace(*p.DocumentURL)
		}
		if p.TutorID != nil {
			if err := s.checkTutorExists(ctx, *p.TutorID); err != nil {
				return err
			}
			db.TutorID = *p.TutorID
		}
		if p.StudentID != nil {
			if err := s.checkStudentReassign(ctx, db, *p.StudentID); err != nil {
				return err
			}
			db.StudentID = *p.StudentID
		}

		db.UpdatedAt = time.Now()
		if err := s.projects.Update(ctx, db); err != nil {
			return err
		}
		patched = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patched, nil
}

// Get retrieves a project by id.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Project, error) {
	return s.projects.GetByID(ctx, id)
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.projects.List(ctx)
}

// Delete removes a project by id.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.projects.Delete(ctx, id)
	})
}

func (s *Service) checkTutorExists(ctx context.Context, id ulid.ULID) error {
	exists, err := s.tutors.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return oops.Code("PROJECT_TUTOR_INVALID").
			With("tutor_id", id.String()).
			Wrapf(fault.ErrValidation, "tutor does not exist")
	}
	return nil
}

func (s *Service) checkStudentExists(ctx context.Context, id ulid.ULID) error {
	exists, err := s.students.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return oops.Code("PROJECT_STUDENT_INVALID").
			With("student_id", id.String()).
			Wrapf(fault.ErrValidation, "student does not exist")
	}
	return nil
}

// checkStudentReassign re-checks the one-project-per-student invariant
// when the student reference changes, excluding this project's own prior
// assignment.
func (s *Service) checkStudentReassign(ctx context.Context, db *Project, studentID ulid.ULID) error {
	if err := s.checkStudentExists(ctx, studentID); err != nil {
		return err
	}
	if studentID == db.StudentID {
		return nil
	}
	assigned, err := s.projects.ExistsByStudentID(ctx, studentID)
	if err != nil {
		return err
	}
	if assigned {
		return oops.Code("PROJECT_STUDENT_ASSIGNED").
			With("student_id", studentID.String()).
			Wrapf(fault.ErrConflict, "that student already has a project")
	}
	return nil
}

func (s *Service) checkCodeChanged(ctx context.Context, db *Project, code string) error {
	if strings.EqualFold(code, db.Code) {
		return nil
	}
	taken, err := s.projects.ExistsByCode(ctx, code)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("PROJECT_CODE_TAKEN").
			With("code", code).
			Wrapf(fault.ErrConflict, "duplicate project code: %s", code)
	}
	return nil
}

func checkScore(score *float64) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return oops.Code("PROJECT_SCORE_RANGE").
			With("score", *score).
			Wrapf(fault.ErrValidation, "final score must be between 0 and 100")
	}
	return nil
}
