// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package postgres implements the project repository using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/project"
	"github.com/proyecta/proyecta/internal/store"
)

const projectColumns = `id, code, title, summary, objectives, subject_area, keywords,
	start_date, end_date, status, final_score, repository_url, document_url,
	tutor_id, student_id, created_at, updated_at`

// Repository implements project.Repository using PostgreSQL.
type Repository struct {
	db store.DBTX
}

// NewRepository creates a new Repository.
func NewRepository(db store.DBTX) *Repository {
	return &Repository{db: db}
}

// Create stores a new project.
func (r *Repository) Create(ctx context.Context, p *project.Project) error {
	_, err := store.Querier(ctx, r.db).Exec(ctx, `
		INSERT INTO project (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		p.ID.String(), p.Code, p.Title, p.Summary, p.Objectives, p.SubjectArea,
		p.Keywords, p.StartDate, p.EndDate, string(p.Status), p.FinalScore,
		p.RepositoryURL, p.DocumentURL, p.TutorID.String(), p.StudentID.String(),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("PROJECT_DUPLICATE").
				With("code", p.Code).
				With("student_id", p.StudentID.String()).
				Wrapf(fault.ErrConflict, "project code or student assignment already in use")
		}
		return oops.Code("PROJECT_CREATE_FAILED").
			With("operation", "insert project").
			With("code", p.Code).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a project by id.
func (r *Repository) GetByID(ctx context.Context, id ulid.ULID) (*project.Project, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT `+projectColumns+` FROM project WHERE id = $1
	`, id.String())

	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROJECT_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROJECT_GET_BY_ID_FAILED").
			With("operation", "get project by id").
			With("id", id.String()).
			Wrap(err)
	}
	return p, nil
}

// ExistsByCode reports whether a project with the code exists (case-insensitive).
func (r *Repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM project WHERE LOWER(code) = LOWER($1))`, code)
}

// ExistsByStudentID reports whether any project is assigned to the student.
func (r *Repository) ExistsByStudentID(ctx context.Context, studentID ulid.ULID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM project WHERE student_id = $1)`, studentID.String())
}

// Update replaces an existing project record.
func (r *Repository) Update(ctx context.Context, p *project.Project) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		UPDATE project SET
			code = $2, title = $3, summary = $4, objectives = $5,
			subject_area = $6, keywords = $7, start_date = $8, end_date = $9,
			status = $10, final_score = $11, repository_url = $12,
			document_url = $13, tutor_id = $14, student_id = $15, updated_at = $16
		WHERE id = $1
	`,
		p.ID.String(), p.Code, p.Title, p.Summary, p.Objectives, p.SubjectArea,
		p.Keywords, p.StartDate, p.EndDate, string(p.Status), p.FinalScore,
		p.RepositoryURL, p.DocumentURL, p.TutorID.String(), p.StudentID.String(),
		p.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("PROJECT_DUPLICATE").
				With("code", p.Code).
				With("student_id", p.StudentID.String()).
				Wrapf(fault.ErrConflict, "project code or student assignment already in use")
		}
		return oops.Code("PROJECT_UPDATE_FAILED").
			With("operation", "update project").
			With("id", p.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROJECT_NOT_FOUND").
			With("id", p.ID.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

// List returns all projects ordered by code.
func (r *Repository) List(ctx context.Context) ([]project.Project, error) {
	rows, err := store.Querier(ctx, r.db).Query(ctx, `
		SELECT `+projectColumns+` FROM project ORDER BY code
	`)
	if err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").
			With("operation", "list projects").
			Wrap(err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, oops.Code("PROJECT_LIST_FAILED").
				With("operation", "scan project row").
				Wrap(err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PROJECT_LIST_FAILED").
			With("operation", "iterate projects").
			Wrap(err)
	}
	return projects, nil
}

// Delete removes a project by id.
func (r *Repository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		DELETE FROM project WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("PROJECT_DELETE_FAILED").
			With("operation", "delete project").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROJECT_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

func (r *Repository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	err := store.Querier(ctx, r.db).QueryRow(ctx, query, arg).Scan(&exists)
	if err != nil {
		return false, oops.Code("PROJECT_EXISTS_FAILED").
			With("operation", "project existence check").
			Wrap(err)
	}
	return exists, nil
}

// scanProject scans a single row into a Project.
// Callers are responsible for handling pgx.ErrNoRows.
func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p            project.Project
		idStr        string
		statusStr    string
		tutorIDStr   string
		studentIDStr string
	)
	err := row.Scan(&idStr, &p.Code, &p.Title, &p.Summary, &p.Objectives,
		&p.SubjectArea, &p.Keywords, &p.StartDate, &p.EndDate, &statusStr,
		&p.FinalScore, &p.RepositoryURL, &p.DocumentURL, &tutorIDStr,
		&studentIDStr, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("PROJECT_SCAN_FAILED").With("operation", "scan project").Wrap(err)
	}

	if p.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("PROJECT_INVALID_ID").
			With("operation", "parse project id").
			With("id", idStr).
			Wrap(err)
	}
	if p.TutorID, err = ulid.Parse(tutorIDStr); err != nil {
		return nil, oops.Code("PROJECT_INVALID_TUTOR_ID").
			With("operation", "parse project tutor id").
			Wrap(err)
	}
	if p.StudentID, err = ulid.Parse(studentIDStr); err != nil {
		return nil, oops.Code("PROJECT_INVALID_STUDENT_ID").
			With("operation", "parse project student id").
			Wrap(err)
	}
	p.Status = project.Status(statusStr)
	return &p, nil
}

// Compile-time interface check.
var _ project.Repository = (*Repository)(nil)
