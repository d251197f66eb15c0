// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/identity/identitytest"
	"github.com/proyecta/proyecta/internal/store"
	"github.com/proyecta/proyecta/pkg/errutil"
)

type studentFixture struct {
	svc      *identity.StudentService
	roles    *identitytest.RoleRepo
	students *identitytest.StudentRepo
}

func newStudentFixture() *studentFixture {
	roles := identitytest.NewRoleRepo()
	students := identitytest.NewStudentRepo()
	svc := identity.NewStudentService(store.PassthroughTx{}, students, roles, stubHasher{})
	return &studentFixture{svc: svc, roles: roles, students: students}
}

func (f *studentFixture) seedStudentRole(t *testing.T) identity.Role {
	t.Helper()
	role := identity.Role{ID: newULID(t), Name: identity.RoleStudent}
	f.roles.Seed(role)
	return role
}

func validNewStudent() identity.NewStudent {
	return identity.NewStudent{
		GivenName:  "Juan",
		FamilyName: "Paredes",
		Email:      "juan@est.edu.ec",
		Username:   "jparedes",
		Password:   "secret123",
		Code:       "EST-0001",
		Program:    "Software",
		Cycle:      "5",
	}
}

func TestStudentService_CreateRequiresExistingStudentRole(t *testing.T) {
	f := newStudentFixture()

	// no ESTUDIANTE role record yet: the default path must not create one
	_, err := f.svc.Create(context.Background(), validNewStudent())
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "ROLE_STUDENT_MISSING")

	roles, listErr := f.roles.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, roles)
}

func TestStudentService_CreateWithSeededRole(t *testing.T) {
	f := newStudentFixture()
	role := f.seedStudentRole(t)

	student, err := f.svc.Create(context.Background(), validNewStudent())
	require.NoError(t, err)
	require.NotNil(t, student.RoleID)
	assert.Equal(t, role.ID, *student.RoleID)
	assert.True(t, student.Active)
	assert.Equal(t, "stub:secret123", student.PasswordHash)
}

func TestStudentService_CreateNonStudentRoleIsIllegal(t *testing.T) {
	f := newStudentFixture()
	f.seedStudentRole(t)
	tutorRole := identity.Role{ID: newULID(t), Name: identity.RoleTutor}
	f.roles.Seed(tutorRole)

	in := validNewStudent()
	in.Role = &identity.RoleRef{ID: &tutorRole.ID}
	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "STUDENT_ROLE_ILLEGAL")
}

func TestStudentService_CreateRequiresCode(t *testing.T) {
	f := newStudentFixture()
	f.seedStudentRole(t)

	in := validNewStudent()
	in.Code = "  "
	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "FIELDS_REQUIRED")
}

func TestStudentService_CreateDuplicateCodeIsConflict(t *testing.T) {
	f := newStudentFixture()
	f.seedStudentRole(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validNewStudent())
	require.NoError(t, err)

	in := validNewStudent()
	in.Email = "other@est.edu.ec"
	in.Username = "other"
	in.Code = "est-0001" // case-insensitive match
	_, err = f.svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	errutil.AssertErrorCode(t, err, "STUDENT_CODE_TAKEN")
}

func TestStudentService_PatchCodeDuplicateIsConflict(t *testing.T) {
	f := newStudentFixture()
	f.seedStudentRole(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validNewStudent())
	require.NoError(t, err)

	in := validNewStudent()
	in.Email = "other@est.edu.ec"
	in.Username = "other"
	in.Code = "EST-0002"
	_, err = f.svc.Create(ctx, in)
	require.NoError(t, err)

	code := "EST-0002"
	_, err = f.svc.Patch(ctx, first.ID, identity.StudentPatch{Code: &code})
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
}

func TestStudentService_UpdateKeepsOwnIdentity(t *testing.T) {
	f := newStudentFixture()
	f.seedStudentRole(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, validNewStudent())
	require.NoError(t, err)

	in := identity.UpdateStudent{
		GivenName:  "Juan Carlos",
		FamilyName: "Paredes",
		Email:      student.Email,
		Username:   student.Username,
		Code:       student.Code,
		Program:    "Software Engineering",
		Cycle:      "6",
	}
	updated, err := f.svc.Update(ctx, student.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Juan Carlos", updated.GivenName)
	assert.Equal(t, "6", updated.Cycle)
	// blank password keeps the stored hash
	assert.Equal(t, student.PasswordHash, updated.PasswordHash)
}
