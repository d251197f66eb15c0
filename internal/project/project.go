// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package project manages supervised projects and the one-to-one
// assignment of students to them.
package project

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
)

// Status enumerates the project lifecycle states.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus validates a status value from input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", oops.Code("PROJECT_STATUS_INVALID").
			With("status", s).
			Wrapf(fault.ErrValidation, "unknown project status: %q", s)
	}
}

// Project is a supervised project. The student reference is unique
// system-wide: a student owns at most one project.
type Project struct {
	ID            ulid.ULID
	Code          string
	Title         string
	Summary       string
	Objectives    string
	SubjectArea   string
	Keywords      string
	StartDate     *time.Time
	EndDate       *time.Time
	Status        Status
	FinalScore    *float64
	RepositoryURL string
	DocumentURL   string
	TutorID       ulid.ULID
	StudentID     ulid.ULID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProject is the input for project creation.
type NewProject struct {
	Code          string
	Title         string
	Summary       string
	Objectives    string
	SubjectArea   string
	Keywords      string
	StartDate     *time.Time
	EndDate       *time.Time
	Status        Status
	FinalScore    *float64
	RepositoryURL string
	DocumentURL   string
	TutorID       ulid.ULID
	StudentID     ulid.ULID
}

// UpdateProject is the input for a full replace. Nil TutorID/StudentID
// keep the current references.
type UpdateProject struct {
	Code          string
	Title         string
	Summary       string
	Objectives    string
	SubjectArea   string
	Keywords      string
	StartDate     *time.Time
	EndDate       *time.Time
	Status        Status
	FinalScore    *float64
	RepositoryURL string
	DocumentURL   string
	TutorID       *ulid.ULID
	StudentID     *ulid.ULID
}

// Patch is the input for a partial update. Nil fields leave stored values
// untouched. ClearFinalScore removes a stored score.
type Patch struct {
	Code            *string
	Title           *string
	Summary         *string
	Objectives      *string
	SubjectArea     *string
	Keywords        *string
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *Status
	FinalScore      *float64
	ClearFinalScore bool
	RepositoryURL   *string
	DocumentURL     *string
	TutorID         *ulid.ULID
	StudentID       *ulid.ULID
}

// Repository manages project persistence.
type Repository interface {
	// Create stores a new project.
	Create(ctx context.Context, p *Project) error

	// GetByID retrieves a project by id.
	GetByID(ctx context.Context, id ulid.ULID) (*Project, error)

	// ExistsByCode reports whether a project with the code exists
	// (case-insensitive).
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ExistsByStudentID reports whether any project is assigned to the student.
	ExistsByStudentID(ctx context.Context, studentID ulid.ULID) (bool, error)

	// Update replaces an existing project record.
	Update(ctx context.Context, p *Project) error

	// List returns all projects.
	List(ctx context.Context) ([]Project, error)

	// Delete removes a project by id.
	Delete(ctx context.Context, id ulid.ULID) error
}
