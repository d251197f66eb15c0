// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package identitytest provides in-memory repository implementations for
// tests. They mirror the error taxonomy of the PostgreSQL repositories.
package identitytest

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
)

// RoleRepo is an in-memory identity.RoleRepository.
type RoleRepo struct {
	mu    sync.Mutex
	roles map[ulid.ULID]identity.Role
}

// NewRoleRepo creates an empty RoleRepo.
func NewRoleRepo() *RoleRepo {
	return &RoleRepo{roles: make(map[ulid.ULID]identity.Role)}
}

// Seed stores a role directly, bypassing validation.
func (r *RoleRepo) Seed(role identity.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.ID] = role
}

func (r *RoleRepo) Create(_ context.Context, role *identity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return oops.Code("ROLE_NAME_TAKEN").Wrapf(fault.ErrConflict, "role already exists: %s", role.Name)
		}
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *RoleRepo) GetByID(_ context.Context, id ulid.ULID) (*identity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, oops.Code("ROLE_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	return &role, nil
}

func (r *RoleRepo) GetByName(_ context.Context, name string) (*identity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return &role, nil
		}
	}
	return nil, oops.Code("ROLE_NOT_FOUND").Wrap(fault.ErrNotFound)
}

func (r *RoleRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.GetByName(ctx, name)
	if err == nil {
		return true, nil
	}
	if fault.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *RoleRepo) Update(_ context.Context, role *identity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return oops.Code("ROLE_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *RoleRepo) List(_ context.Context) ([]identity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *RoleRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return oops.Code("ROLE_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	delete(r.roles, id)
	return nil
}

// TutorRepo is an in-memory identity.TutorRepository. Role name counting
// resolves through the linked RoleRepo.
type TutorRepo struct {
	mu     sync.Mutex
	tutors map[ulid.ULID]identity.Tutor
	Roles  *RoleRepo
}

// NewTutorRepo creates an empty TutorRepo resolving roles against roles.
func NewTutorRepo(roles *RoleRepo) *TutorRepo {
	return &TutorRepo{tutors: make(map[ulid.ULID]identity.Tutor), Roles: roles}
}

// Seed stores a tutor directly, bypassing validation.
func (r *TutorRepo) Seed(tutor identity.Tutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tutors[tutor.ID] = tutor
}

func (r *TutorRepo) Create(_ context.Context, tutor *identity.Tutor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tutors[tutor.ID] = *tutor
	return nil
}

func (r *TutorRepo) GetByID(_ context.Context, id ulid.ULID) (*identity.Tutor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tutor, ok := r.tutors[id]
	if !ok {
		return nil, oops.Code("TUTOR_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	return &tutor, nil
}

func (r *TutorRepo) ExistsByID(_ context.Context, id ulid.ULID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tutors[id]
	return ok, nil
}

func (r *TutorRepo) GetByUsername(_ context.Context, username string) (*identity.Tutor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tutor := range r.tutors {
		if strings.EqualFold(tutor.Username, username) {
			return &tutor, nil
		}
	}
	return nil, oops.Code("TUTOR_NOT_FOUND").Wrap(fault.ErrNotFound)
}

func (r *TutorRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tutor := range r.tutors {
		if strings.EqualFold(tutor.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *TutorRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tutor := range r.tutors {
		if strings.EqualFold(tutor.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *TutorRepo) CountByRoleName(ctx context.Context, roleName string) (int64, error) {
	r.mu.Lock()
	tutors := make([]identity.Tutor, 0, len(r.tutors))
	for _, tutor := range r.tutors {
		tutors = append(tutors, tutor)
	}
	r.mu.Unlock()

	var count int64
	for _, tutor := range tutors {
		if tutor.RoleID == nil {
			continue
		}
		role, err := r.Roles.GetByID(ctx, *tutor.RoleID)
		if err != nil {
			if fault.IsNotFound(err) {
				continue
			}
			return 0, err
		}
		if strings.EqualFold(role.Name, roleName) {
			count++
		}
	}
	return count, nil
}

func (r *TutorRepo) Update(_ context.Context, tutor *identity.Tutor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tutors[tutor.ID]; !ok {
		return oops.Code("TUTOR_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	r.tutors[tutor.ID] = *tutor
	return nil
}

func (r *TutorRepo) List(_ context.Context) ([]identity.Tutor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.Tutor, 0, len(r.tutors))
	for _, tutor := range r.tutors {
		out = append(out, tutor)
	}
	return out, nil
}

func (r *TutorRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tutors[id]; !ok {
		return oops.Code("TUTOR_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	delete(r.tutors, id)
	return nil
}

// StudentRepo is an in-memory identity.StudentRepository.
type StudentRepo struct {
	mu       sync.Mutex
	students map[ulid.ULID]identity.Student
}

// NewStudentRepo creates an empty StudentRepo.
func NewStudentRepo() *StudentRepo {
	return &StudentRepo{students: make(map[ulid.ULID]identity.Student)}
}

// Seed stores a student directly, bypassing validation.
func (r *StudentRepo) Seed(student identity.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[student.ID] = student
}

func (r *StudentRepo) Create(_ context.Context, student *identity.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[student.ID] = *student
	return nil
}

func (r *StudentRepo) GetByID(_ context.Context, id ulid.ULID) (*identity.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok {
		return nil, oops.Code("STUDENT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	return &student, nil
}

func (r *StudentRepo) ExistsByID(_ context.Context, id ulid.ULID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.students[id]
	return ok, nil
}

func (r *StudentRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return r.anyMatch(func(s identity.Student) bool { return strings.EqualFold(s.Email, email) }), nil
}

func (r *StudentRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return r.anyMatch(func(s identity.Student) bool { return strings.EqualFold(s.Username, username) }), nil
}

func (r *StudentRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	return r.anyMatch(func(s identity.Student) bool { return strings.EqualFold(s.Code, code) }), nil
}

func (r *StudentRepo) anyMatch(match func(identity.Student) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, student := range r.students {
		if match(student) {
			return true
		}
	}
	return false
}

func (r *StudentRepo) Update(_ context.Context, student *identity.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[student.ID]; !ok {
		return oops.Code("STUDENT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	r.students[student.ID] = *student
	return nil
}

func (r *StudentRepo) List(_ context.Context) ([]identity.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.Student, 0, len(r.students))
	for _, student := range r.students {
		out = append(out, student)
	}
	return out, nil
}

func (r *StudentRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return oops.Code("STUDENT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	delete(r.students, id)
	return nil
}

// Compile-time interface checks.
var (
	_ identity.RoleRepository    = (*RoleRepo)(nil)
	_ identity.TutorRepository   = (*TutorRepo)(nil)
	_ identity.StudentRepository = (*StudentRepo)(nil)
)
