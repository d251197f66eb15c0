// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/store"
)

// DefaultTutorEmailDomain is the suffix every TUTOR-role account's email
// must carry. ADMIN accounts are exempt.
const DefaultTutorEmailDomain = "@tutor.com"

// TutorService enforces the account invariants for the tutor variant:
// email/username uniqueness in the tutor namespace, the single-ADMIN rule,
// the tutor email-domain rule, and role legality.
type TutorService struct {
	tx          store.TxRunner
	tutors      TutorRepository
	roles       RoleRepository
	hasher      PasswordHasher
	emailDomain string
}

// NewTutorService creates a TutorService. emailDomain is the required
// suffix for TUTOR-role emails; blank selects DefaultTutorEmailDomain.
func NewTutorService(tx store.TxRunner, tutors TutorRepository, roles RoleRepository, hasher PasswordHasher, emailDomain string) *TutorService {
	if emailDomain == "" {
		emailDomain = DefaultTutorEmailDomain
	}
	return &TutorService{
		tx:          tx,
		tutors:      tutors,
		roles:       roles,
		hasher:      hasher,
		emailDomain: emailDomain,
	}
}

// EmailDomain returns the configured tutor email-domain suffix.
func (s *TutorService) EmailDomain() string {
	return s.emailDomain
}

// Create runs the full governance pipeline for a new tutor: role
// resolution (TUTOR default, created on first use), normalization,
// uniqueness checks, mandatory password hashing, and the post-state role
// rules, all inside one transaction.
func (s *TutorService) Create(ctx context.Context, in NewTutor) (*Tutor, error) {
	var created *Tutor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		role, err := s.resolveRole(ctx, in.Role)
		if err != nil {
			return err
		}

		now := time.Now()
		tutor := &Tutor{
			ID:            ulid.Make(),
			GivenName:     strings.TrimSpace(in.GivenName),
			FamilyName:    strings.TrimSpace(in.FamilyName),
			Email:         strings.TrimSpace(in.Email),
			Username:      strings.TrimSpace(in.Username),
			Active:        true,
			AcademicTitle: strings.TrimSpace(in.AcademicTitle),
			Department:    strings.TrimSpace(in.Department),
			RoleID:        &role.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if in.Active != nil {
			tutor.Active = *in.Active
		}

		if err := requireFields(map[string]string{
			"givenName":  tutor.GivenName,
			"familyName": tutor.FamilyName,
			"email":      tutor.Email,
			"username":   tutor.Username,
		}); err != nil {
			return err
		}

		if err := s.checkUnique(ctx, tutor.Email, tutor.Username, nil); err != nil {
			return err
		}

		if strings.TrimSpace(in.Password) == "" {
			return oops.Code("TUTOR_PASSWORD_REQUIRED").
				Wrapf(fault.ErrValidation, "password is required")
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		tutor.PasswordHash = hash

		if err := s.checkRoleRules(ctx, role, tutor.Email, false); err != nil {
			return err
		}

		if err := s.tutors.Create(ctx, tutor); err != nil {
			return err
		}
		created = tutor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces a tutor's mutable fields, re-validating every invariant
// against the resulting state. The single-ADMIN check compares the role
// held immediately before this transaction to the role after it.
func (s *TutorService) Update(ctx context.Context, id ulid.ULID, in UpdateTutor) (*Tutor, error) {
	var updated *Tutor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.tutors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		wasAdmin, err := s.holdsAdmin(ctx, db)
		if err != nil {
			return err
		}

		role, err := s.currentOrResolvedRole(ctx, db, in.Role)
		if err != nil {
			return err
		}
		db.RoleID = &role.ID

		email := strings.TrimSpace(in.Email)
		username := strings.TrimSpace(in.Username)
		if err := requireFields(map[string]string{
			"givenName":  strings.TrimSpace(in.GivenName),
			"familyName": strings.TrimSpace(in.FamilyName),
			"email":      email,
			"username":   username,
		}); err != nil {
			return err
		}

		if err := s.checkUniqueChanged(ctx, db, email, username); err != nil {
			return err
		}

		db.GivenName = strings.TrimSpace(in.GivenName)
		db.FamilyName = strings.TrimSpace(in.FamilyName)
		db.Email = email
		db.Username = username
		db.AcademicTitle = strings.TrimSpace(in.AcademicTitle)
		db.Department = strings.TrimSpace(in.Department)
		if in.Active != nil {
			db.Active = *in.Active
		}

		if strings.TrimSpace(in.Password) != "" {
			hash, err := s.hasher.Hash(in.Password)
			if err != nil {
				return err
			}
			db.PasswordHash = hash
		}

		if err := s.checkRoleRules(ctx, role, db.Email, wasAdmin); err != nil {
			return err
		}

		db.UpdatedAt = time.Now()
		if err := s.tutors.Update(ctx, db); err != nil {
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

// Patch applies only the fields present in p, each validated as in Update,
// and re-checks the role rules against the resulting state.
func (s *TutorService) Patch(ctx context.Context, id ulid.ULID, p TutorPatch) (*Tutor, error) {
	var patched *Tutor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.tutors.GetByID(ctx, id)
		if err != nil {
			return err
		}
		wasAdmin, err := s.holdsAdmin(ctx, db)
		if err != nil {
			return err
		}

		role, err := s.currentOrResolvedRole(ctx, db, p.Role)
		if err != nil {
			return err
		}
		db.RoleID = &role.ID

		if p.GivenName != nil {
			db.GivenName = strings.TrimSpace(*p.GivenName)
		}
		if p.FamilyName != nil {
			db.FamilyName = strings.TrimSpace(*p.FamilyName)
		}
		if p.Email != nil {
			email := strings.TrimSpace(*p.Email)
			if !strings.EqualFold(email, db.Email) {
				taken, err := s.tutors.ExistsByEmail(ctx, email)
				if err != nil {
					return err
				}
				if taken {
					return oops.Code("TUTOR_EMAIL_TAKEN").
						With("email", email).
						Wrapf(fault.ErrConflict, "email already exists: %s", email)
				}
			}
			db.Email = email
		}
		if p.Username != nil {
			username := strings.TrimSpace(*p.Username)
			if !strings.EqualFold(username, db.Username) {
				taken, err := s.tutors.ExistsByUsername(ctx, username)
				if err != nil {
					return err
				}
				if taken {
					return oops.Code("TUTOR_USERNAME_TAKEN").
						With("username", username).
						Wrapf(fault.ErrConflict, "username already exists: %s", username)
				}
			}
			db.Username = username
		}
		if p.Password != nil && strings.TrimSpace(*p.Password) != "" {
			hash, err := s.hasher.Hash(*p.Password)
			if err != nil {
				return err
			}
			db.PasswordHash = hash
		}
		if p.Active != nil {
			db.Active = *p.Active
		}
		if p.AcademicTitle != nil {
			db.AcademicTitle = strings.TrimSpace(*p.AcademicTitle)
		}
		if p.Department != nil {
			db.Department = strings.TrimSpace(*p.Department)
		}

		if err := s.checkRoleRules(ctx, role, db.Email, wasAdmin); err != nil {
			return err
		}

		db.UpdatedAt = time.Now()
		if err := s.tutors.Update(ctx, db); err != nil {
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

// Get retrieves a tutor by id.
func (s *TutorService) Get(ctx context.Context, id ulid.ULID) (*Tutor, error) {
	return s.tutors.GetByID(ctx, id)
}

// GetByUsername retrieves a tutor by username. Used by the login path.
func (s *TutorService) GetByUsername(ctx context.Context, username string) (*Tutor, error) {
	return s.tutors.GetByUsername(ctx, username)
}

// List returns all tutors.
func (s *TutorService) List(ctx context.Context) ([]Tutor, error) {
	return s.tutors.List(ctx)
}

// Delete removes a tutor by id.
func (s *TutorService) Delete(ctx context.Context, id ulid.ULID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.tutors.Delete(ctx, id)
	})
}

// CountAdmins counts tutor accounts currently holding the ADMIN role.
func (s *TutorService) CountAdmins(ctx context.Context) (int64, error) {
	return s.tutors.CountByRoleName(ctx, RoleAdmin)
}

// resolveRole maps a RoleRef to a Role record. A nil ref (or an empty one)
// selects the TUTOR default, creating that role record on first use — the
// only lookup-path auto-creation in the system. An unknown id is NotFound;
// an unknown name is a validation failure, never a silent creation.
func (s *TutorService) resolveRole(ctx context.Context, ref *RoleRef) (*Role, error) {
	switch {
	case ref == nil || (ref.ID == nil && ref.Name == nil):
		return s.ensureTutorRole(ctx)
	case ref.ID != nil:
		return s.roles.GetByID(ctx, *ref.ID)
	default:
		normalized := NormalizeRoleName(*ref.Name)
		role, err := s.roles.GetByName(ctx, normalized)
		if err != nil {
			if fault.IsNotFound(err) {
				return nil, oops.Code("ROLE_UNKNOWN_NAME").
					With("name", normalized).
					Wrapf(fault.ErrValidation, "role not found: %s", normalized)
			}
			return nil, err
		}
		return role, nil
	}
}

// currentOrResolvedRole resolves ref when present, otherwise loads the
// account's current role. An account with no role reference gets the TUTOR
// default as on create.
func (s *TutorService) currentOrResolvedRole(ctx context.Context, db *Tutor, ref *RoleRef) (*Role, error) {
	if ref != nil {
		return s.resolveRole(ctx, ref)
	}
	if db.RoleID == nil {
		return s.ensureTutorRole(ctx)
	}
	return s.roles.GetByID(ctx, *db.RoleID)
}

func (s *TutorService) ensureTutorRole(ctx context.Context) (*Role, error) {
	existing, err := s.roles.GetByName(ctx, RoleTutor)
	if err == nil {
		return existing, nil
	}
	if !fault.IsNotFound(err) {
		return nil, err
	}
	role := &Role{ID: ulid.Make(), Name: RoleTutor, Description: "System tutor account"}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// holdsAdmin reports whether the account's role resolves to ADMIN right now.
func (s *TutorService) holdsAdmin(ctx context.Context, t *Tutor) (bool, error) {
	if t.RoleID == nil {
		return false, nil
	}
	role, err := s.roles.GetByID(ctx, *t.RoleID)
	if err != nil {
		if fault.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(NormalizeRoleName(role.Name), RoleAdmin), nil
}

// checkRoleRules validates the post-mutation state: at most one ADMIN
// account system-wide, TUTOR emails on the configured domain, and no role
// other than ADMIN or TUTOR on this variant.
func (s *TutorService) checkRoleRules(ctx context.Context, role *Role, email string, wasAdmin bool) error {
	name := NormalizeRoleName(role.Name)

	isAdmin := name == RoleAdmin
	if isAdmin && !wasAdmin {
		admins, err := s.tutors.CountByRoleName(ctx, RoleAdmin)
		if err != nil {
			return err
		}
		if admins > 0 {
			return oops.Code("ADMIN_ALREADY_EXISTS").
				Wrapf(fault.ErrConflict, "an ADMIN account already exists")
		}
	}

	if name == RoleTutor {
		if !strings.HasSuffix(strings.ToLower(email), strings.ToLower(s.emailDomain)) {
			return oops.Code("TUTOR_EMAIL_DOMAIN").
				With("email", email).
				With("domain", s.emailDomain).
				Wrapf(fault.ErrValidation, "tutor email must end with %s", s.emailDomain)
		}
	}

	if !isAdmin && name != RoleTutor {
		return oops.Code("TUTOR_ROLE_ILLEGAL").
			With("role", name).
			Wrapf(fault.ErrValidation, "invalid role for tutor: %s", name)
	}
	return nil
}

func (s *TutorService) checkUnique(ctx context.Context, email, username string, _ *Tutor) error {
	taken, err := s.tutors.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("TUTOR_EMAIL_TAKEN").
			With("email", email).
			Wrapf(fault.ErrConflict, "email already exists: %s", email)
	}
	taken, err = s.tutors.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("TUTOR_USERNAME_TAKEN").
			With("username", username).
			Wrapf(fault.ErrConflict, "username already exists: %s", username)
	}
	return nil
}

// checkUniqueChanged enforces uniqueness only for fields that actually
// change, so an account can be re-saved under its own email and username.
func (s *TutorService) checkUniqueChanged(ctx context.Context, db *Tutor, email, username string) error {
	if !strings.EqualFold(email, db.Email) {
		taken, err := s.tutors.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return oops.Code("TUTOR_EMAIL_TAKEN").
				With("email", email).
				Wrapf(fault.ErrConflict, "email already exists: %s", email)
		}
	}
	if !strings.EqualFold(username, db.Username) {
		taken, err := s.tutors.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return oops.Code("TUTOR_USERNAME_TAKEN").
				With("username", username).
				Wrapf(fault.ErrConflict, "username already exists: %s", username)
		}
	}
	return nil
}

// requireFields rejects blank required string attributes with a single
// validation error naming each missing field.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return oops.Code("FIELDS_REQUIRED").
		With("fields", missing).
		Wrapf(fault.ErrValidation, "required fields missing or blank")
}
