// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package project_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/identity/identitytest"
	"github.com/proyecta/proyecta/internal/project"
	"github.com/proyecta/proyecta/internal/project/projecttest"
	"github.com/proyecta/proyecta/internal/store"
	"github.com/proyecta/proyecta/pkg/errutil"
)

type fixture struct {
	svc      *project.Service
	projects *projecttest.Repo
	tutors   *identitytest.TutorRepo
	students *identitytest.StudentRepo
	tutorID  ulid.ULID
	student  ulid.ULID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	roles := identitytest.NewRoleRepo()
	tutors := identitytest.NewTutorRepo(roles)
	students := identitytest.NewStudentRepo()
	projects := projecttest.NewRepo()

	tutorID := ulid.Make()
	tutors.Seed(identity.Tutor{ID: tutorID, Email: "maria@tutor.com", Username: "mlopez"})
	studentID := ulid.Make()
	students.Seed(identity.Student{ID: studentID, Email: "juan@est.edu.ec", Username: "jparedes", Code: "EST-0001"})

	return &fixture{
		svc:      project.NewService(store.PassthroughTx{}, projects, tutors, students),
		projects: projects,
		tutors:   tutors,
		students: students,
		tutorID:  tutorID,
		student:  studentID,
	}
}

func (f *fixture) validNewProject() project.NewProject {
	return project.NewProject{
		Code:      "PRJ-001",
		Title:     "Inventory system",
		Summary:   "A stock tracking system",
		Status:    project.StatusPlanned,
		TutorID:   f.tutorID,
		StudentID: f.student,
	}
}

func (f *fixture) seedSecondStudent(t *testing.T) ulid.ULID {
	t.Helper()
	id := ulid.Make()
	f.students.Seed(identity.Student{ID: id, Email: "ana@est.edu.ec", Username: "agarcia", Code: "EST-0002"})
	return id
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PLANNED", "IN_PROGRESS", "COMPLETED", "CANCELLED"} {
		status, err := project.ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, project.Status(valid), status)
	}

	_, err := project.ParseStatus("SHIPPED")
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "PROJECT_STATUS_INVALID")
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), f.validNewProject())
	require.NoError(t, err)
	assert.Equal(t, "PRJ-001", p.Code)
	assert.Equal(t, f.student, p.StudentID)
	assert.NotZero(t, p.ID)
}

func TestService_CreateStudentAlreadyAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.validNewProject())
	require.NoError(t, err)

	in := f.validNewProject()
	in.Code = "PRJ-002"
	_, err = f.svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	errutil.AssertErrorCode(t, err, "PROJECT_STUDENT_ASSIGNED")
}

func TestService_CreateDuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.validNewProject())
	require.NoError(t, err)

	in := f.validNewProject()
	in.StudentID = f.seedSecondStudent(t)
	in.Code = "prj-001" // case-insensitive match
	_, err = f.svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	errutil.AssertErrorCode(t, err, "PROJECT_CODE_TAKEN")
}

func TestService_CreateUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.validNewProject()
	in.StudentID = ulid.Make()
	_, err := f.svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "PROJECT_STUDENT_INVALID")

	in = f.validNewProject()
	in.TutorID = ulid.Make()
	_, err = f.svc.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "PROJECT_TUTOR_INVALID")
}

func TestService_CreateScoreOutOfRange(t *testing.T) {
	f := newFixture(t)

	for _, score := range []float64{-0.5, 100.01} {
		in := f.validNewProject()
		in.FinalScore = &score
		_, err := f.svc.Create(context.Background(), in)
		require.Error(t, err, "score %v", score)
		errutil.AssertErrorCode(t, err, "PROJECT_SCORE_RANGE")
	}
}

func TestService_CreateBlankFields(t *testing.T) {
	f := newFixture(t)

	in := f.validNewProject()
	in.Summary = "   "
	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
	errutil.AssertErrorCode(t, err, "PROJECT_FIELDS_REQUIRED")
}

func TestService_UpdateKeepOwnCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.validNewProject())
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, p.ID, project.UpdateProject{
		Code:    "PRJ-001",
		Title:   "Inventory system v2",
		Summary: p.Summary,
		Status:  project.StatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "Inventory system v2", updated.Title)
	assert.Equal(t, project.StatusInProgress, updated.Status)
	// nil references keep the original assignment
	assert.Equal(t, f.tutorID, updated.TutorID)
	assert.Equal(t, f.student, updated.StudentID)
}

func TestService_PatchReassignToBusyStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.validNewProject())
	require.NoError(t, err)

	secondStudent := f.seedSecondStudent(t)
	in := f.validNewProject()
	in.Code = "PRJ-002"
	in.StudentID = secondStudent
	second, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	// moving the second project onto the first project's student
	_, err = f.svc.PatchProject(ctx, second.ID, project.Patch{StudentID: &first.StudentID})
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	errutil.AssertErrorCode(t, err, "PROJECT_STUDENT_ASSIGNED")
}

func TestService_PatchOwnStudentIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.validNewProject())
	require.NoError(t, err)

	// re-stating the project's own student must not trip the invariant
	patched, err := f.svc.PatchProject(ctx, p.ID, project.Patch{StudentID: &p.StudentID})
	require.NoError(t, err)
	assert.Equal(t, p.StudentID, patched.StudentID)
}

func TestService_PatchClearFinalScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	score := 85.5
	in := f.validNewProject()
	in.FinalScore = &score
	p, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, p.FinalScore)

	patched, err := f.svc.PatchProject(ctx, p.ID, project.Patch{ClearFinalScore: true})
	require.NoError(t, err)
	assert.Nil(t, patched.FinalScore)
}

func TestService_DeleteUnknownIsNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), ulid.Make())
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}
