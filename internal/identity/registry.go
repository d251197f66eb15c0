// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/store"
)

// Names creatable through the generic registry channel. ADMIN is absent on
// purpose: it only ever comes into existence through the bootstrap path.
var allowedRoleNames = map[string]bool{
	RoleTutor:   true,
	RoleStudent: true,
}

// Registry manages the fixed role universe.
type Registry struct {
	tx    store.TxRunner
	roles RoleRepository
}

// NewRegistry creates a Registry.
func NewRegistry(tx store.TxRunner, roles RoleRepository) *Registry {
	return &Registry{tx: tx, roles: roles}
}

// Get retrieves a role by id.
func (r *Registry) Get(ctx context.Context, id ulid.ULID) (*Role, error) {
	return r.roles.GetByID(ctx, id)
}

// GetByName retrieves a role by normalized name.
func (r *Registry) GetByName(ctx context.Context, name string) (*Role, error) {
	return r.roles.GetByName(ctx, NormalizeRoleName(name))
}

// List returns all roles.
func (r *Registry) List(ctx context.Context) ([]Role, error) {
	return r.roles.List(ctx)
}

// Create adds a role through the generic channel. Only names on the
// allow-list are accepted; ADMIN is always Forbidden here. A duplicate
// name after normalization is a Conflict.
func (r *Registry) Create(ctx context.Context, name, description string) (*Role, error) {
	normalized := NormalizeRoleName(name)
	if !allowedRoleNames[normalized] {
		return nil, oops.Code("ROLE_NAME_FORBIDDEN").
			With("name", normalized).
			Wrapf(fault.ErrForbidden, "role name not allowed: %q", normalized)
	}

	role := &Role{Name: normalized, Description: description}
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		exists, err := r.roles.ExistsByName(ctx, normalized)
		if err != nil {
			return err
		}
		if exists {
			return oops.Code("ROLE_NAME_TAKEN").
				With("name", normalized).
				Wrapf(fault.ErrConflict, "role already exists: %s", normalized)
		}
		role.ID = ulid.Make()
		return r.roles.Create(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Update renames a role and replaces its description, under the same
// legality and duplicate rules as Create. Renaming a role to itself
// (case-insensitively) skips the duplicate check. The ADMIN role record
// keeps its name for life: renaming it would strip the sole administrator
// of the ADMIN role and make the single-admin count meaningless.
func (r *Registry) Update(ctx context.Context, id ulid.ULID, name, description string) (*Role, error) {
	normalized := NormalizeRoleName(name)
	if !allowedRoleNames[normalized] {
		return nil, oops.Code("ROLE_NAME_FORBIDDEN").
			With("name", normalized).
			Wrapf(fault.ErrForbidden, "role name not allowed: %q", normalized)
	}

	var role *Role
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := r.roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if NormalizeRoleName(db.Name) == RoleAdmin {
			return oops.Code("ROLE_ADMIN_IMMUTABLE").
				With("id", id.String()).
				Wrapf(fault.ErrForbidden, "the ADMIN role cannot be renamed")
		}
		if NormalizeRoleName(db.Name) != normalized {
			exists, err := r.roles.ExistsByName(ctx, normalized)
			if err != nil {
				return err
			}
			if exists {
				return oops.Code("ROLE_NAME_TAKEN").
					With("name", normalized).
					Wrapf(fault.ErrConflict, "role already exists: %s", normalized)
			}
		}
		db.Name = normalized
		db.Description = description
		if err := r.roles.Update(ctx, db); err != nil {
			return err
		}
		role = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Patch applies the present fields of p to a role, each validated the same
// way as Update. A name patch on the ADMIN role is rejected; its
// description may still change.
func (r *Registry) Patch(ctx context.Context, id ulid.ULID, p RolePatch) (*Role, error) {
	var role *Role
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := r.roles.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if p.Name != nil {
			if NormalizeRoleName(db.Name) == RoleAdmin {
				return oops.Code("ROLE_ADMIN_IMMUTABLE").
					With("id", id.String()).
					Wrapf(fault.ErrForbidden, "the ADMIN role cannot be renamed")
			}
			normalized := NormalizeRoleName(*p.Name)
			if !allowedRoleNames[normalized] {
				return oops.Code("ROLE_NAME_FORBIDDEN").
					With("name", normalized).
					Wrapf(fault.ErrForbidden, "role name not allowed: %q", normalized)
			}
			if NormalizeRoleName(db.Name) != normalized {
				exists, err := r.roles.ExistsByName(ctx, normalized)
				if err != nil {
					return err
				}
				if exists {
					return oops.Code("ROLE_NAME_TAKEN").
						With("name", normalized).
						Wrapf(fault.ErrConflict, "role already exists: %s", normalized)
				}
			}
			db.Name = normalized
		}
		if p.Description != nil {
			db.Description = *p.Description
		}

		if err := r.roles.Update(ctx, db); err != nil {
			return err
		}
		role = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Delete removes a role by id.
func (r *Registry) Delete(ctx context.Context, id ulid.ULID) error {
	return r.tx.InTx(ctx, func(ctx context.Context) error {
		return r.roles.Delete(ctx, id)
	})
}

// EnsureDefault resolves a role by name, creating it with the given
// description when absent. It is the one sanctioned get-or-create path and
// serves only the bootstrap roles (ADMIN on first-admin registration, TUTOR
// as the tutor-account default); general lookups never create.
func (r *Registry) EnsureDefault(ctx context.Context, name, description string) (*Role, error) {
	normalized := NormalizeRoleName(name)
	var role *Role
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := r.roles.GetByName(ctx, normalized)
		if err == nil {
			role = existing
			return nil
		}
		if !fault.IsNotFound(err) {
			return err
		}
		role = &Role{ID: ulid.Make(), Name: normalized, Description: description}
		return r.roles.Create(ctx, role)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}
