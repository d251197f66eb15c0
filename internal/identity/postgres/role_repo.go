// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package postgres implements the identity repositories using PostgreSQL.
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

// RoleRepository implements identity.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db store.DBTX
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db store.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create stores a new role.
func (r *RoleRepository) Create(ctx context.Context, role *identity.Role) error {
	_, err := store.Querier(ctx, r.db).Exec(ctx, `
		INSERT INTO role (id, name, description)
		VALUES ($1, $2, $3)
	`, role.ID.String(), role.Name, role.Description)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("ROLE_NAME_TAKEN").
				With("name", role.Name).
				Wrapf(fault.ErrConflict, "role already exists: %s", role.Name)
		}
		return oops.Code("ROLE_CREATE_FAILED").
			With("operation", "insert role").
			With("name", role.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a role by id.
func (r *RoleRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.Role, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT id, name, description FROM role WHERE id = $1
	`, id.String())

	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_BY_ID_FAILED").
			With("operation", "get role by id").
			With("id", id.String()).
			Wrap(err)
	}
	return role, nil
}

// GetByName retrieves a role by name (case-insensitive).
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*identity.Role, error) {
	row := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT id, name, description FROM role WHERE LOWER(name) = LOWER($1)
	`, name)

	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").
			With("name", name).
			Wrap(fault.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_BY_NAME_FAILED").
			With("operation", "get role by name").
			With("name", name).
			Wrap(err)
	}
	return role, nil
}

// ExistsByName reports whether a role with the name exists (case-insensitive).
func (r *RoleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := store.Querier(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM role WHERE LOWER(name) = LOWER($1))
	`, name).Scan(&exists)
	if err != nil {
		return false, oops.Code("ROLE_EXISTS_FAILED").
			With("operation", "role exists by name").
			With("name", name).
			Wrap(err)
	}
	return exists, nil
}

// Update replaces the stored name and description of an existing role.
func (r *RoleRepository) Update(ctx context.Context, role *identity.Role) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		UPDATE role SET name = $2, description = $3 WHERE id = $1
	`, role.ID.String(), role.Name, role.Description)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("ROLE_NAME_TAKEN").
				With("name", role.Name).
				Wrapf(fault.ErrConflict, "role already exists: %s", role.Name)
		}
		return oops.Code("ROLE_UPDATE_FAILED").
			With("operation", "update role").
			With("id", role.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ROLE_NOT_FOUND").
			With("id", role.ID.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

// List returns all roles ordered by name.
func (r *RoleRepository) List(ctx context.Context) ([]identity.Role, error) {
	rows, err := store.Querier(ctx, r.db).Query(ctx, `
		SELECT id, name, description FROM role ORDER BY name
	`)
	if err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "list roles").
			Wrap(err)
	}
	defer rows.Close()

	var roles []identity.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, oops.Code("ROLE_LIST_FAILED").
				With("operation", "scan role row").
				Wrap(err)
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").
			With("operation", "iterate roles").
			Wrap(err)
	}
	return roles, nil
}

// Delete removes a role by id.
func (r *RoleRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := store.Querier(ctx, r.db).Exec(ctx, `
		DELETE FROM role WHERE id = $1
	`, id.String())
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return oops.Code("ROLE_IN_USE").
				With("id", id.String()).
				Wrapf(fault.ErrConflict, "role is still assigned to accounts")
		}
		return oops.Code("ROLE_DELETE_FAILED").
			With("operation", "delete role").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ROLE_NOT_FOUND").
			With("id", id.String()).
			Wrap(fault.ErrNotFound)
	}
	return nil
}

// scanRole scans a single row into a Role.
// Callers are responsible for handling pgx.ErrNoRows.
func scanRole(row pgx.Row) (*identity.Role, error) {
	var (
		idStr       string
		name        string
		description string
	)
	if err := row.Scan(&idStr, &name, &description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("ROLE_SCAN_FAILED").With("operation", "scan role").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ROLE_INVALID_ID").
			With("operation", "parse role id").
			With("id", idStr).
			Wrap(err)
	}

	return &identity.Role{ID: id, Name: name, Description: description}, nil
}

// Compile-time interface check.
var _ identity.RoleRepository = (*RoleRepository)(nil)
