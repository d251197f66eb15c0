// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Role names with special meaning. ADMIN is only ever created through the
// bootstrap path; TUTOR is the default for tutor accounts; ESTUDIANTE is the
// only legal role for student accounts.
const (
	RoleAdmin   = "ADMIN"
	RoleTutor   = "TUTOR"
	RoleStudent = "ESTUDIANTE"
)

// Role is a record in the fixed role universe. Accounts reference roles by
// id; a role never embeds or owns the accounts that point at it.
type Role struct {
	ID          ulid.ULID
	Name        string
	Description string
}

// NormalizeRoleName canonicalizes a role name for comparison and storage:
// surrounding whitespace is trimmed, letters are upper-cased, and interior
// spaces become underscores.
func NormalizeRoleName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

// RoleRef identifies an intended role on account input, by id or by name.
// At most one of the fields is expected to be set; id wins when both are.
type RoleRef struct {
	ID   *ulid.ULID
	Name *string
}

// RolePatch carries an optional-field update for a role. Nil fields leave
// the stored value untouched.
type RolePatch struct {
	Name        *string
	Description *string
}

// RoleRepository manages role persistence. Name lookups are
// case-insensitive against the normalized stored name.
type RoleRepository interface {
	// Create stores a new role.
	Create(ctx context.Context, role *Role) error

	// GetByID retrieves a role by id.
	GetByID(ctx context.Context, id ulid.ULID) (*Role, error)

	// GetByName retrieves a role by name (case-insensitive).
	GetByName(ctx context.Context, name string) (*Role, error)

	// ExistsByName reports whether a role with the name exists (case-insensitive).
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Update replaces the stored name and description of an existing role.
	Update(ctx context.Context, role *Role) error

	// List returns all roles.
	List(ctx context.Context) ([]Role, error)

	// Delete removes a role by id.
	Delete(ctx context.Context, id ulid.ULID) error
}
