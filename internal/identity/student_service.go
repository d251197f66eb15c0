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

// StudentService enforces the account invariants for the student variant:
// email/username/code uniqueness in the student namespace and the rule
// that a student's role always resolves to ESTUDIANTE.
type StudentService struct {
	tx       store.TxRunner
	students StudentRepository
	roles    RoleRepository
	hasher   PasswordHasher
}

// NewStudentService creates a StudentService.
func NewStudentService(tx store.TxRunner, students StudentRepository, roles RoleRepository, hasher PasswordHasher) *StudentService {
	return &StudentService{tx: tx, students: students, roles: roles, hasher: hasher}
}

// Create runs the governance pipeline for a new student. The ESTUDIANTE
// role record must already exist; student creation never creates roles.
func (s *StudentService) Create(ctx context.Context, in NewStudent) (*Student, error) {
	var created *Student
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		role, err := s.resolveRole(ctx, in.Role)
		if err != nil {
			return err
		}

		now := time.Now()
		student := &Student{
			ID:         ulid.Make(),
			GivenName:  strings.TrimSpace(in.GivenName),
			FamilyName: strings.TrimSpace(in.FamilyName),
			Email:      strings.TrimSpace(in.Email),
			Username:   strings.TrimSpace(in.Username),
			Active:     true,
			Code:       strings.TrimSpace(in.Code),
			Program:    strings.TrimSpace(in.Program),
			Cycle:      strings.TrimSpace(in.Cycle),
			RoleID:     &role.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if in.Active != nil {
			student.Active = *in.Active
		}

		if err := requireFields(map[string]string{
			"givenName":  student.GivenName,
			"familyName": student.FamilyName,
			"email":      student.Email,
			"username":   student.Username,
			"code":       student.Code,
		}); err != nil {
			return err
		}

		if err := s.checkUniqueNew(ctx, student); err != nil {
			return err
		}

		if strings.TrimSpace(in.Password) == "" {
			return oops.Code("STUDENT_PASSWORD_REQUIRED").
				Wrapf(fault.ErrValidation, "password is required")
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		student.PasswordHash = hash

		if err := s.students.Create(ctx, student); err != nil {
			return err
		}
		created = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces a student's mutable fields, re-validating uniqueness for
// every changed field and role legality for the resulting state.
func (s *StudentService) Update(ctx context.Context, id ulid.ULID, in UpdateStudent) (*Student, error) {
	var updated *Student
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.students.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Role != nil {
			role, err := s.resolveRole(ctx, in.Role)
			if err != nil {
				return err
			}
			db.RoleID = &role.ID
		}

		email := strings.TrimSpace(in.Email)
		username := strings.TrimSpace(in.Username)
		code := strings.TrimSpace(in.Code)
		if err := requireFields(map[string]string{
			"givenName":  strings.TrimSpace(in.GivenName),
			"familyName": strings.TrimSpace(in.FamilyName),
			"email":      email,
			"username":   username,
			"code":       code,
		}); err != nil {
			return err
		}

		if err := s.checkEmailChanged(ctx, db, email); err != nil {
			return err
		}
		if err := s.checkUsernameChanged(ctx, db, username); err != nil {
			return err
		}
		if err := s.checkCodeChanged(ctx, db, code); err != nil {
			return err
		}

		db.GivenName = strings.TrimSpace(in.GivenName)
		db.FamilyName = strings.TrimSpace(in.FamilyName)
		db.Email = email
		db.Username = username
		db.Code = code
		db.Program = strings.TrimSpace(in.Program)
		db.Cycle = strings.TrimSpace(in.Cycle)
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

		db.UpdatedAt = time.Now()
		if err := s.students.Update(ctx, db); err != nil {
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

// Patch applies only the fields present in p, each validated independently.
func (s *StudentService) Patch(ctx context.Context, id ulid.ULID, p StudentPatch) (*Student, error) {
	var patched *Student
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		db, err := s.students.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if p.Role != nil {
			role, err := s.resolveRole(ctx, p.Role)
			if err != nil {
				return err
			}
			db.RoleID = &role.ID
		}

		if p.GivenName != nil {
			db.GivenName = strings.TrimSpace(*p.GivenName)
		}
		if p.FamilyName != nil {
			db.FamilyName = strings.TrimSpace(*p.FamilyName)
		}
		if p.Email != nil {
			email := strings.TrimSpace(*p.Email)
			if err := s.checkEmailChanged(ctx, db, email); err != nil {
				return err
			}
			db.Email = email
		}
		if p.Username != nil {
			username := strings.TrimSpace(*p.Username)
			if err := s.checkUsernameChanged(ctx, db, username); err != nil {
				return err
			}
			db.Username = username
		}
		if p.Code != nil {
			code := strings.TrimSpace(*p.Code)
			if err := s.checkCodeChanged(ctx, db, code); err != nil {
				return err
			}
			db.Code = code
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
		if p.Program != nil {
			db.Program = strings.TrimSpace(*p.Program)
		}
		if p.Cycle != nil {
			db.Cycle = strings.TrimSpace(*p.Cycle)
		}

		db.UpdatedAt = time.Now()
		if err := s.students.Update(ctx, db); err != nil {
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

// Get retrieves a student by id.
func (s *StudentService) Get(ctx context.Context, id ulid.ULID) (*Student, error) {
	return s.students.GetByID(ctx, id)
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]Student, error) {
	return s.students.List(ctx)
}

// Delete removes a student by id.
func (s *StudentService) Delete(ctx context.Context, id ulid.ULID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.students.Delete(ctx, id)
	})
}

// resolveRole maps a RoleRef to a role and rejects anything that does not
// resolve to ESTUDIANTE. A nil ref requires the ESTUDIANTE role record to
// exist already: only the role registry (ADMIN channel) creates it.
func (s *StudentService) resolveRole(ctx context.Context, ref *RoleRef) (*Role, error) {
	var (
		role *Role
		err  error
	)
	switch {
	case ref == nil || (ref.ID == nil && ref.Name == nil):
		role, err = s.roles.GetByName(ctx, RoleStudent)
		if err != nil {
			if fault.IsNotFound(err) {
				return nil, oops.Code("ROLE_STUDENT_MISSING").
					Wrapf(fault.ErrValidation, "the ESTUDIANTE role does not exist yet; ask an ADMIN to create it")
			}
			return nil, err
		}
	case ref.ID != nil:
		role, err = s.roles.GetByID(ctx, *ref.ID)
		if err != nil {
			return nil, err
		}
	default:
		normalized := NormalizeRoleName(*ref.Name)
		role, err = s.roles.GetByName(ctx, normalized)
		if err != nil {
			if fault.IsNotFound(err) {
				return nil, oops.Code("ROLE_UNKNOWN_NAME").
					With("name", normalized).
					Wrapf(fault.ErrValidation, "role not found: %s", normalized)
			}
			return nil, err
		}
	}

	if NormalizeRoleName(role.Name) != RoleStudent {
		return nil, oops.Code("STUDENT_ROLE_ILLEGAL").
			With("role", role.Name).
			Wrapf(fault.ErrValidation, "invalid role for student: %s", role.Name)
	}
	return role, nil
}

func (s *StudentService) checkUniqueNew(ctx context.Context, student *Student) error {
	taken, err := s.students.ExistsByEmail(ctx, student.Email)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_EMAIL_TAKEN").
			With("email", student.Email).
			Wrapf(fault.ErrConflict, "email already exists: %s", student.Email)
	}
	taken, err = s.students.ExistsByUsername(ctx, student.Username)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_USERNAME_TAKEN").
			With("username", student.Username).
			Wrapf(fault.ErrConflict, "username already exists: %s", student.Username)
	}
	taken, err = s.students.ExistsByCode(ctx, student.Code)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_CODE_TAKEN").
			With("code", student.Code).
			Wrapf(fault.ErrConflict, "code already exists: %s", student.Code)
	}
	return nil
}

func (s *StudentService) checkEmailChanged(ctx context.Context, db *Student, email string) error {
	if strings.EqualFold(email, db.Email) {
		return nil
	}
	taken, err := s.students.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_EMAIL_TAKEN").
			With("email", email).
			Wrapf(fault.ErrConflict, "email already exists: %s", email)
	}
	return nil
}

func (s *StudentService) checkUsernameChanged(ctx context.Context, db *Student, username string) error {
	if strings.EqualFold(username, db.Username) {
		return nil
	}
	taken, err := s.students.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_USERNAME_TAKEN").
			With("username", username).
			Wrapf(fault.ErrConflict, "username already exists: %s", username)
	}
	return nil
}

func (s *StudentService) checkCodeChanged(ctx context.Context, db *Student, code string) error {
	if strings.EqualFold(code, db.Code) {
		return nil
	}
	taken, err := s.students.ExistsByCode(ctx, code)
	if err != nil {
		return err
	}
	if taken {
		return oops.Code("STUDENT_CODE_TAKEN").
			With("code", code).
			Wrapf(fault.ErrConflict, "code already exists: %s", code)
	}
	return nil
}
