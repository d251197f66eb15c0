// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Tutor is a supervising account. A tutor carrying the ADMIN role is the
// system administrator; at most one such account exists at any time.
type Tutor struct {
	ID            ulid.ULID
	GivenName     string
	FamilyName    string
	Email         string
	Username      string
	PasswordHash  string
	Active        bool
	AcademicTitle string
	Department    string
	RoleID        *ulid.ULID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTutor is the input for tutor creation. Password is plaintext and
// mandatory; Role nil selects the TUTOR default.
type NewTutor struct {
	GivenName     string
	FamilyName    string
	Email         string
	Username      string
	Password      string
	Active        *bool
	AcademicTitle string
	Department    string
	Role          *RoleRef
}

// UpdateTutor is the input for a full replace. A blank Password keeps the
// stored hash; a nil Role keeps the current role.
type UpdateTutor struct {
	GivenName     string
	FamilyName    string
	Email         string
	Username      string
	Password      string
	Active        *bool
	AcademicTitle string
	Department    string
	Role          *RoleRef
}

// TutorPatch is the input for a partial update. Nil fields leave stored
// values untouched; each present field is validated independently.
type TutorPatch struct {
	GivenName     *string
	FamilyName    *string
	Email         *string
	Username      *string
	Password      *string
	Active        *bool
	AcademicTitle *string
	Department    *string
	Role          *RoleRef
}

// TutorRepository manages tutor persistence. Email and username lookups
// are case-insensitive.
type TutorRepository interface {
	// Create stores a new tutor.
	Create(ctx context.Context, tutor *Tutor) error

	// GetByID retrieves a tutor by id.
	GetByID(ctx context.Context, id ulid.ULID) (*Tutor, error)

	// ExistsByID reports whether a tutor with the id exists.
	ExistsByID(ctx context.Context, id ulid.ULID) (bool, error)

	// GetByUsername retrieves a tutor by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Tutor, error)

	// ExistsByEmail reports whether a tutor with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether a tutor with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CountByRoleName counts tutors whose role resolves to the given name
	// (case-insensitive).
	CountByRoleName(ctx context.Context, roleName string) (int64, error)

	// Update replaces an existing tutor record.
	Update(ctx context.Context, tutor *Tutor) error

	// List returns all tutors.
	List(ctx context.Context) ([]Tutor, error)

	// Delete removes a tutor by id.
	Delete(ctx context.Context, id ulid.ULID) error
}
