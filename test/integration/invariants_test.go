// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

//go:build integration

package integration

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/oklog/ulid/v2"

	"github.com/proyecta/proyecta/internal/auth"
	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/project"
)

var _ = Describe("Account invariants", func() {
	ctx := context.Background()

	BeforeEach(func() {
		resetTables(ctx)
	})

	newTutor := func(email, username string) identity.NewTutor {
		return identity.NewTutor{
			GivenName:  "Maria",
			FamilyName: "Lopez",
			Email:      email,
			Username:   username,
			Password:   "secret123",
		}
	}

	Describe("bootstrap", func() {
		It("creates the default administrator once", func() {
			admin, err := env.Gate.Bootstrap(ctx, auth.BootstrapAdmin{})
			Expect(err).NotTo(HaveOccurred())
			Expect(admin.Username).To(Equal("ADMIN"))
			Expect(admin.Email).To(Equal("admin@acceso.com"))

			_, err = env.Gate.Bootstrap(ctx, auth.BootstrapAdmin{})
			Expect(err).To(HaveOccurred())
			Expect(fault.IsConflict(err)).To(BeTrue())
		})

		It("refuses a second ADMIN through the tutor service", func() {
			_, err := env.Gate.Bootstrap(ctx, auth.BootstrapAdmin{})
			Expect(err).NotTo(HaveOccurred())

			in := newTutor("other@acceso.com", "admin2")
			adminName := identity.RoleAdmin
			in.Role = &identity.RoleRef{Name: &adminName}
			_, err = env.Tutors.Create(ctx, in)
			Expect(err).To(HaveOccurred())
			Expect(fault.IsConflict(err)).To(BeTrue())
		})
	})

	Describe("tutor accounts", func() {
		It("auto-creates the TUTOR role on first use", func() {
			tutor, err := env.Tutors.Create(ctx, newTutor("maria@tutor.com", "mlopez"))
			Expect(err).NotTo(HaveOccurred())
			Expect(tutor.RoleID).NotTo(BeNil())

			role, err := env.Roles.Get(ctx, *tutor.RoleID)
			Expect(err).NotTo(HaveOccurred())
			Expect(role.Name).To(Equal(identity.RoleTutor))
		})

		It("rejects an email outside the tutor domain", func() {
			_, err := env.Tutors.Create(ctx, newTutor("maria@gmail.com", "mlopez"))
			Expect(err).To(HaveOccurred())
			Expect(fault.IsValidation(err)).To(BeTrue())
		})

		It("rejects a duplicate email regardless of case", func() {
			_, err := env.Tutors.Create(ctx, newTutor("maria@tutor.com", "mlopez"))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Tutors.Create(ctx, newTutor("MARIA@tutor.com", "other"))
			Expect(err).To(HaveOccurred())
			Expect(fault.IsConflict(err)).To(BeTrue())
		})
	})

	Describe("student accounts", func() {
		newStudent := func(code string) identity.NewStudent {
			return identity.NewStudent{
				GivenName:  "Ana",
				FamilyName: "Gomez",
				Email:      "ana+" + code + "@uni.edu",
				Username:   "agomez" + code,
				Password:   "secret123",
				Code:       code,
			}
		}

		It("requires the ESTUDIANTE role to pre-exist", func() {
			_, err := env.Students.Create(ctx, newStudent("U1"))
			Expect(err).To(HaveOccurred())
			Expect(fault.IsValidation(err)).To(BeTrue())

			_, err = env.Roles.Create(ctx, identity.RoleStudent, "enrolled student")
			Expect(err).NotTo(HaveOccurred())

			student, err := env.Students.Create(ctx, newStudent("U1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(student.RoleID).NotTo(BeNil())
		})

		It("rejects a duplicate student code", func() {
			_, err := env.Roles.Create(ctx, identity.RoleStudent, "enrolled student")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Students.Create(ctx, newStudent("U1"))
			Expect(err).NotTo(HaveOccurred())

			dup := newStudent("u1")
			dup.Email = "dup@uni.edu"
			dup.Username = "dup"
			_, err = env.Students.Create(ctx, dup)
			Expect(err).To(HaveOccurred())
			Expect(fault.IsConflict(err)).To(BeTrue())
		})
	})

	Describe("login", func() {
		It("issues a verifiable token for the bootstrap admin", func() {
			_, err := env.Gate.Bootstrap(ctx, auth.BootstrapAdmin{})
			Expect(err).NotTo(HaveOccurred())

			session, err := env.Gate.Login(ctx, "admin", "admin1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Role).To(Equal(identity.RoleAdmin))

			principal, err := env.Gate.Verify(session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(principal.Name).To(Equal("ADMIN"))
		})

		It("rejects a wrong password", func() {
			_, err := env.Gate.Bootstrap(ctx, auth.BootstrapAdmin{})
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Gate.Login(ctx, "ADMIN", "nope")
			Expect(err).To(HaveOccurred())
			Expect(fault.IsUnauthenticated(err)).To(BeTrue())
		})
	})
})

var _ = Describe("Project invariants", func() {
	ctx := context.Background()

	var tutorID, studentID ulid.ULID

	BeforeEach(func() {
		resetTables(ctx)

		_, err := env.Roles.Create(ctx, identity.RoleStudent, "enrolled student")
		Expect(err).NotTo(HaveOccurred())

		tutor, err := env.Tutors.Create(ctx, identity.NewTutor{
			GivenName:  "Maria",
			FamilyName: "Lopez",
			Email:      "maria@tutor.com",
			Username:   "mlopez",
			Password:   "secret123",
		})
		Expect(err).NotTo(HaveOccurred())
		tutorID = tutor.ID

		student, err := env.Students.Create(ctx, identity.NewStudent{
			GivenName:  "Ana",
			FamilyName: "Gomez",
			Email:      "ana@uni.edu",
			Username:   "agomez",
			Password:   "secret123",
			Code:       "U2023001",
		})
		Expect(err).NotTo(HaveOccurred())
		studentID = student.ID
	})

	newProject := func(code string) project.NewProject {
		return project.NewProject{
			Code:      code,
			Title:     "Thesis tracker",
			TutorID:   tutorID,
			StudentID: studentID,
		}
	}

	It("assigns at most one project per student", func() {
		_, err := env.Projects.Create(ctx, newProject("PRJ-001"))
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Projects.Create(ctx, newProject("PRJ-002"))
		Expect(err).To(HaveOccurred())
		Expect(fault.IsConflict(err)).To(BeTrue())
	})

	It("rejects a duplicate project code regardless of case", func() {
		_, err := env.Projects.Create(ctx, newProject("PRJ-001"))
		Expect(err).NotTo(HaveOccurred())

		// second student so the assignment rule does not trip first
		other, err := env.Students.Create(ctx, identity.NewStudent{
			GivenName:  "Luis",
			FamilyName: "Diaz",
			Email:      "luis@uni.edu",
			Username:   "ldiaz",
			Password:   "secret123",
			Code:       "U2023002",
		})
		Expect(err).NotTo(HaveOccurred())

		dup := newProject("prj-001")
		dup.StudentID = other.ID
		_, err = env.Projects.Create(ctx, dup)
		Expect(err).To(HaveOccurred())
		Expect(fault.IsConflict(err)).To(BeTrue())
	})

	It("rejects references to unknown tutors or students", func() {
		bad := newProject("PRJ-001")
		bad.TutorID = ulid.Make()
		_, err := env.Projects.Create(ctx, bad)
		Expect(err).To(HaveOccurred())
		Expect(fault.IsValidation(err)).To(BeTrue())

		bad = newProject("PRJ-002")
		bad.StudentID = ulid.Make()
		_, err = env.Projects.Create(ctx, bad)
		Expect(err).To(HaveOccurred())
		Expect(fault.IsValidation(err)).To(BeTrue())
	})

	It("deleting a project frees the student for a new assignment", func() {
		created, err := env.Projects.Create(ctx, newProject("PRJ-001"))
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Projects.Delete(ctx, created.ID)).To(Succeed())

		_, err = env.Projects.Create(ctx, newProject("PRJ-002"))
		Expect(err).NotTo(HaveOccurred())
	})
})
