// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Student is a supervised account. Its role must always resolve to
// ESTUDIANTE; the institutional code is unique among students.
type Student struct {
	ID           ulid.ULID
	GivenName    string
	FamilyName   string
	Email        string
	Username     string
	PasswordHash string
	Active       bool
	Code         string
	Program      string
	Cycle        string
	RoleID       *ulid.ULID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewStudent is the input for student creation. Password is plaintext and
// mandatory; Role nil requires the ESTUDIANTE role record to already exist.
type NewStudent struct {
	GivenName  string
	FamilyName string
	Email      string
	Username   string
	Password   string
	Active     *bool
	Code       string
	Program    string
	Cycle      string
	Role       *RoleRef
}

// UpdateStudent is the input for a full replace. A blank Password keeps
// the stored hash; a nil Role keeps the current role.
type UpdateStudent struct {
	GivenName  string
	FamilyName string
	Email      string
	Username   string
	Password   string
	Active     *bool
	Code       string
	Program    string
	Cycle      string
	Role       *RoleRef
}

// StudentPatch is the input for a partial update.
type StudentPatch struct {
	GivenName  *string
	FamilyName *string
	Email      *string
	Username   *string
	Password   *string
	Active     *bool
	Code       *string
	Program    *string
	Cycle      *string
	Role       *RoleRef
}

// StudentRepository manages student persistence. Email, username and code
// lookups are case-insensitive.
type StudentRepository interface {
	// Create stores a new student.
	Create(ctx context.Context, student *Student) error

	// GetByID retrieves a student by id.
	GetByID(ctx context.Context, id ulid.ULID) (*Student, error)

	// ExistsByID reports whether a student with the id exists.
	ExistsByID(ctx context.Context, id ulid.ULID) (bool, error)

	// ExistsByEmail reports whether a student with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether a student with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByCode reports whether a student with the institutional code exists.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Update replaces an existing student record.
	Update(ctx context.Context, student *Student) error

	// List returns all students.
	List(ctx context.Context) ([]Student, error)

	// Delete removes a student by id.
	Delete(ctx context.Context, id ulid.ULID) error
}
