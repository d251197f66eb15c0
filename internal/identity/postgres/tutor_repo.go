// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/store"
)

const tutorColumns = `id, given_name, family_name, email, username, password_hash,
	active, academic_title, department, role_id, created_at, updated_at`

// TutorRepository implements identity.TutorRepository using PostgreSQL.
type TutorRepository struct {
	db store.DBTX
}

// NewTutorRepository creates a new TutorRepository.
func NewTutorRepository(db store.DBTX) *TutorRepository {
	return &TutorRepository{db: db}
}

// Create stores a new tutor.
func (r *TutorRepository) Create(ctx context.Context, tutor *identity.Tutor) error {
	_, err := store.Querier(ctx, r.db).Exec(ctx, `
		INSERT INTO tutor (`+tutorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		tutor.ID.String(), tutor.GivenName, tutor.FamilyName, tutor.Email,
		tutor.Username, tutor.PasswordHash, tutor.Active, tutor.AcademicTitle,
		tutor.Department, ulidPtrToString(tutor.RoleID), tutor.CreatedAt, tutor.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("TUTOR_DUPLICATE").
				With("email", tutor.Email).
				With("username", tutor.Username).
				Wrapf(fault.ErrConflict, "email or username already in use")
		}
		return oops.Code("TUTOR_CREATE_FAILED").
			With("operation", "insert tutor").
			With("username", tutor.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a tutor by id.
func (r *TutorRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.Tutor, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+tutorColumns+` FROM tutor WHERE id = $1
	`, id.String())

	tutor, err := scanTutor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TUTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TUTOR_GET_BY_ID_FAILED").
			With("operation", "get tutor by id").
			With("id", id.String()).
			Wrap(err)
	}
	return tutor, nil
}

// ExistsByID reports whether a tutor with the id exists.
func (r *TutorRepository) ExistsByID(ctx context.Context, id ulid.ULID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tutor WHERE id = $1)`, id.String())
}

// GetByUsername retrieves a tutor by username (case-insensitive).
func (r *TutorRepository) GetByUsername(ctx context.Context, username string) (*identity.Tutor, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+tutorColumns+` FROM tutor WHERE LOWER(username) = LOWER($1)
	`, username)

	tutor, err := scanTutor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TUTOR_NOT_FOUND").
			With("username", username).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TUTOR_GET_BY_USERNAME_FAILED").
			With("operation", "get tutor by username").
			With("username", username).
			Wrap(err)
	}
	return tutor, nil
}

// ExistsByEmail reports whether a tutor with the email exists.
func (r *TutorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tutor WHERE LOWER(email) = LOWER($1))`, email)
}

// ExistsByUsername reports whether a tutor with the username exists.
func (r *TutorRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM tutor WHERE LOWER(username) = LOWER($1))`, username)
}

// CountByRoleName counts tutors whose role resolves to the given name
// (case-insensitive).
func (r *TutorRepository) CountByRoleName(ctx context.Context, roleName string) (int64, error) {
	var count int64
	err := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT COUNT(*) FROM tutor t
		JOIN role r ON r.id = t.role_id
		WHERE LOWER(r.name) = LOWER($1)
	`, roleName).Scan(&count)
	if err != nil {
		return 0, oops.Code("TUTOR_COUNT_FAILED").
			With("operation", "count tutors by role name").
			With("role", roleName).
			Wrap(err)
	}
	return count, nil
}

// Update replaces an existing tutor record.
func (r *TutorRepository) Update(ctx context.Context, tutor *identity.Tutor) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		UPDATE tutor SET
			given_name = $2, family_name = $3, email = $4, username = $5,
			password_hash = $6, active = $7, academic_title = $8,
			department = $9, role_id = $10, updated_at = $11
		WHERE id = $1
	`,
		tutor.ID.String(), tutor.GivenName, tutor.FamilyName, tutor.Email,
		tutor.Username, tutor.PasswordHash, tutor.Active, tutor.AcademicTitle,
		tutor.Department, ulidPtrToString(tutor.RoleID), tutor.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("TUTOR_DUPLICATE").
				With("email", tutor.Email).
				With("username", tutor.Username).
				Wrapf(fault.ErrConflict, "email or username already in use")
		}
		return oops.Code("TUTOR_UPDATE_FAILED").
			With("operation", "update tutor").
			With("id", tutor.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TUTOR_NOT_FOUND").
			With("id", tutor.ID.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

// List returns all tutors ordered by username.
func (r *TutorRepository) List(ctx context.Context) ([]identity.Tutor, error) {
	rows, err := store.Querier(ctx, r.db).Query(ctx, `
		SELECT `+tutorColumns+` FROM tutor ORDER BY username
	`)
	if err != nil {
		return nil, oops.Code("TUTOR_LIST_FAILED").
			With("operation", "list tutors").
			Wrap(err)
	}
	defer rows.Close()

	var tutors []identity.Tutor
	for rows.Next() {
		tutor, err := scanTutor(rows)
		if err != nil {
			return nil, oops.Code("TUTOR_LIST_FAILED").
				With("operation", "scan tutor row").
				Wrap(err)
		}
		tutors = append(tutors, *tutor)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TUTOR_LIST_FAILED").
			With("operation", "iterate tutors").
			Wrap(err)
	}
	return tutors, nil
}

// Delete removes a tutor by id.
func (r *TutorRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		DELETE FROM tutor WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("TUTOR_DELETE_FAILED").
			With("operation", "delete tutor").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TUTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

func (r *TutorRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	err := store.Querier(ctx, r.db).QueryRow(ctx, query, arg).Scan(&exists)
	if err != nil {
		return false, oops.Code("TUTOR_EXISTS_FAILED").
			With("operation", "tutor existence check").
			Wrap(err)
	}
	return exists, nil
}

// scanTutor scans a single row into a Tutor.
// Callers are responsible for handling pgx.ErrNoRows.
func scanTutor(row pgx.Row) (*identity.Tutor, error) {
	var (
		t         identity.Tutor
		idStr     string
		roleIDStr *string
	)
	err := row.Scan(&idStr, &t.GivenName, &t.FamilyName, &t.Email, &t.Username,
		&t.PasswordHash, &t.Active, &t.AcademicTitle, &t.Department,
		&roleIDStr, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("TUTOR_SCAN_FAILED").With("operation", "scan tutor").Wrap(err)
	}

	if t.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("TUTOR_INVALID_ID").
			With("operation", "parse tutor id").
			With("id", idStr).
			Wrap(err)
	}
	if t.RoleID, err = parseULIDPtr(roleIDStr); err != nil {
		return nil, oops.Code("TUTOR_INVALID_ROLE_ID").
			With("operation", "parse tutor role id").
			Wrap(err)
	}
	return &t, nil
}

// ulidPtrToString converts an optional ULID to a nullable SQL parameter.
func ulidPtrToString(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseULIDPtr parses a nullable ULID column.
func parseULIDPtr(s *string) (*ulid.ULID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*s)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &id, nil
}

// Compile-time interface check.
var _ identity.TutorRepository = (*TutorRepository)(nil)
