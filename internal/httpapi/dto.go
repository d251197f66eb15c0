// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/project"
)

// dateLayout is the wire format for project start/end dates.
const dateLayout = "2006-01-02"

// roleRefBody selects a role by id or by name. At most one is honored;
// id wins when both are present.
type roleRefBody struct {
	RoleID   *string `json:"role_id,omitempty"`
	RoleName *string `json:"role_name,omitempty"`
}

func (b *roleRefBody) toRef() (*identity.RoleRef, error) {
	if b.RoleID == nil && b.RoleName == nil {
		return nil, nil
	}
	if b.RoleID != nil {
		id, err := parseULIDField("role_id", *b.RoleID)
		if err != nil {
			return nil, err
		}
		return &identity.RoleRef{ID: &id}, nil
	}
	return &identity.RoleRef{Name: b.RoleName}, nil
}

func parseULIDField(field, value string) (ulid.ULID, error) {
	id, err := ulid.Parse(value)
	if err != nil {
		return ulid.ULID{}, oops.Code("ID_INVALID").
			With("field", field).
			With("value", value).
			Wrapf(fault.ErrValidation, "%s is not a valid id", field)
	}
	return id, nil
}

func parseDateField(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, oops.Code("DATE_INVALID").
			With("field", field).
			With("value", *value).
			Wrapf(fault.ErrValidation, "%s must use the %s format", field, dateLayout)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func ulidString(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// roleResponse is the wire shape of a role.
type roleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toRoleResponse(r *identity.Role) roleResponse {
	return roleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
	}
}

// tutorResponse is the wire shape of a tutor. The password hash is
// never serialized.
type tutorResponse struct {
	ID            string    `json:"id"`
	GivenName     string    `json:"given_name"`
	FamilyName    string    `json:"family_name"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Active        bool      `json:"active"`
	AcademicTitle string    `json:"academic_title"`
	Department    string    `json:"department"`
	RoleID        *string   `json:"role_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTutorResponse(t *identity.Tutor) tutorResponse {
	return tutorResponse{
		ID:            t.ID.String(),
		GivenName:     t.GivenName,
		FamilyName:    t.FamilyName,
		Email:         t.Email,
		Username:      t.Username,
		Active:        t.Active,
		AcademicTitle: t.AcademicTitle,
		Department:    t.Department,
		RoleID:        ulidString(t.RoleID),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// studentResponse is the wire shape of a student. The password hash is
// never serialized.
type studentResponse struct {
	ID         string    `json:"id"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Active     bool      `json:"active"`
	Code       string    `json:"code"`
	Program    string    `json:"program"`
	Cycle      string    `json:"cycle"`
	RoleID     *string   `json:"role_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toStudentResponse(s *identity.Student) studentResponse {
	return studentResponse{
		ID:         s.ID.String(),
		GivenName:  s.GivenName,
		FamilyName: s.FamilyName,
		Email:      s.Email,
		Username:   s.Username,
		Active:     s.Active,
		Code:       s.Code,
		Program:    s.Program,
		Cycle:      s.Cycle,
		RoleID:     ulidString(s.RoleID),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// projectResponse is the wire shape of a project.
type projectResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Objectives    string    `json:"objectives"`
	SubjectArea   string    `json:"subject_area"`
	Keywords      string    `json:"keywords"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	Status        string    `json:"status"`
	FinalScore    *float64  `json:"final_score"`
	RepositoryURL string    `json:"repository_url"`
	DocumentURL   string    `json:"document_url"`
	TutorID       string    `json:"tutor_id"`
	StudentID     string    `json:"student_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProjectResponse(p *project.Project) projectResponse {
	return projectResponse{
		ID:            p.ID.String(),
		Code:          p.Code,
		Title:         p.Title,
		Summary:       p.Summary,
		Objectives:    p.Objectives,
		SubjectArea:   p.SubjectArea,
		Keywords:      p.Keywords,
		StartDate:     formatDate(p.StartDate),
		EndDate:       formatDate(p.EndDate),
		Status:        string(p.Status),
		FinalScore:    p.FinalScore,
		RepositoryURL: p.RepositoryURL,
		DocumentURL:   p.DocumentURL,
		TutorID:       p.TutorID.String(),
		StudentID:     p.StudentID.String(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// sessionResponse is the wire shape of a successful login.
type sessionResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
