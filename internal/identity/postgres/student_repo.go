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

const studentColumns = `id, given_name, family_name, email, username, password_hash,
	active, code, program, cycle, role_id, created_at, updated_at`

// StudentRepository implements identity.StudentRepository using PostgreSQL.
type StudentRepository struct {
	db store.DBTX
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db store.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create stores a new student.
func (r *StudentRepository) Create(ctx context.Context, student *identity.Student) error {
	_, err := store.Querier(ctx, r.db).Exec(ctx, `
		INSERT INTO student (`+studentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		student.ID.String(), student.GivenName, student.FamilyName, student.Email,
		student.Username, student.PasswordHash, student.Active, student.Code,
		student.Program, student.Cycle, ulidPtrToString(student.RoleID),
		student.CreatedAt, student.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("STUDENT_DUPLICATE").
				With("email", student.Email).
				With("username", student.Username).
				With("code", student.Code).
				Wrapf(fault.ErrConflict, "email, username or code already in use")
		}
		return oops.Code("STUDENT_CREATE_FAILED").
			With("operation", "insert student").
			With("username", student.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a student by id.
func (r *StudentRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.Student, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+studentColumns+` FROM student WHERE id = $1
	`, id.String())

	student, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("STUDENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("STUDENT_GET_BY_ID_FAILED").
			With("operation", "get student by id").
			With("id", id.String()).
			Wrap(err)
	}
	return student, nil
}

// ExistsByID reports whether a student with the id exists.
func (r *StudentRepository) ExistsByID(ctx context.Context, id ulid.ULID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM student WHERE id = $1)`, id.String())
}

// ExistsByEmail reports whether a student with the email exists.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM student WHERE LOWER(email) = LOWER($1))`, email)
}

// ExistsByUsername reports whether a student with the username exists.
func (r *StudentRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM student WHERE LOWER(username) = LOWER($1))`, username)
}

// ExistsByCode reports whether a student with the institutional code exists.
func (r *StudentRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM student WHERE LOWER(code) = LOWER($1))`, code)
}

// Update replaces an existing student record.
func (r *StudentRepository) Update(ctx context.Context, student *identity.Student) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		UPDATE student SET
			given_name = $2, family_name = $3, email = $4, username = $5,
			password_hash = $6, active = $7, code = $8, program = $9,
			cycle = $10, role_id = $11, updated_at = $12
		WHERE id = $1
	`,
		student.ID.String(), student.GivenName, student.FamilyName, student.Email,
		student.Username, student.PasswordHash, student.Active, student.Code,
		student.Program, student.Cycle, ulidPtrToString(student.RoleID),
		student.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("STUDENT_DUPLICATE").
				With("email", student.Email).
				With("username", student.Username).
				With("code", student.Code).
				Wrapf(fault.ErrConflict, "email, username or code already in use")
		}
		return oops.Code("STUDENT_UPDATE_FAILED").
			With("operation", "update student").
			With("id", student.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("STUDENT_NOT_FOUND").
			With("id", student.ID.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

// List returns all students ordered by code.
func (r *StudentRepository) List(ctx context.Context) ([]identity.Student, error) {
	rows, err := store.Querier(ctx, r.db).Query(ctx, `
		SELECT `+studentColumns+` FROM student ORDER BY code
	`)
	if err != nil {
		return nil, oops.Code("STUDENT_LIST_FAILED").
			With("operation", "list students").
			Wrap(err)
	}
	defer rows.Close()

	var students []identity.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, oops.Code("STUDENT_LIST_FAILED").
				With("operation", "scan student row").
				Wrap(err)
		}
		students = append(students, *student)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STUDENT_LIST_FAILED").
			With("operation", "iterate students").
			Wrap(err)
	}
	return students, nil
}

// Delete removes a student by id.
func (r *StudentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		DELETE FROM student WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("STUDENT_DELETE_FAILED").
			With("operation", "delete student").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("STUDENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

func (r *StudentRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	err := store.Querier(ctx, r.db).QueryRow(ctx, query, arg).Scan(&exists)
	if err != nil {
		return false, oops.Code("STUDENT_EXISTS_FAILED").
			With("operation", "student existence check").
			Wrap(err)
	}
	return exists, nil
}

// scanStudent scans a single row into a Student.
// Callers are responsible for handling pgx.ErrNoRows.
func scanStudent(row pgx.Row) (*identity.Student, error) {
	var (
		s         identity.Student
		idStr     string
		roleIDStr *string
	)
	err := row.Scan(&idStr, &s.GivenName, &s.FamilyName, &s.Email, &s.Username,
		&s.PasswordHash, &s.Active, &s.Code, &s.Program, &s.Cycle,
		&roleIDStr, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("STUDENT_SCAN_FAILED").With("operation", "scan student").Wrap(err)
	}

	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("STUDENT_INVALID_ID").
			With("operation", "parse student id").
			With("id", idStr).
			Wrap(err)
	}
	if s.RoleID, err = parseULIDPtr(roleIDStr); err != nil {
		return nil, oops.Code("STUDENT_INVALID_ROLE_ID").
			With("operation", "parse student role id").
			Wrap(err)
	}
	return &s, nil
}

// Compile-time interface check.
var _ identity.StudentRepository = (*StudentRepository)(nil)
