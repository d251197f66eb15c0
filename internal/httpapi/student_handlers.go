// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"

	"github.com/proyecta/proyecta/internal/identity"
)

type studentRequest struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Active     *bool  `json:"active,omitempty"`
	Code       string `json:"code"`
	Program    string `json:"program"`
	Cycle      string `json:"cycle"`
	roleRefBody
}

type studentPatchRequest struct {
	GivenName  *string `json:"given_name,omitempty"`
	FamilyName *string `json:"family_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	Active     *bool   `json:"active,omitempty"`
	Code       *string `json:"code,omitempty"`
	Program    *string `json:"program,omitempty"`
	Cycle      *string `json:"cycle,omitempty"`
	roleRefBody
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.students.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]studentResponse, 0, len(students))
	for i := range students {
		out = append(out, toStudentResponse(&students[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	student, err := s.students.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.students.Create(r.Context(), identity.NewStudent{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Active:     req.Active,
		Code:       req.Code,
		Program:    req.Program,
		Cycle:      req.Cycle,
		Role:       ref,
	})
	if err != nil {
		s.observeInvariant(err, "student-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toStudentResponse(student))
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.students.Update(r.Context(), id, identity.UpdateStudent{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Active:     req.Active,
		Code:       req.Code,
		Program:    req.Program,
		Cycle:      req.Cycle,
		Role:       ref,
	})
	if err != nil {
		s.observeInvariant(err, "student-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (s *Server) handlePatchStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req studentPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	student, err := s.students.Patch(r.Context(), id, identity.StudentPatch{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Active:     req.Active,
		Code:       req.Code,
		Program:    req.Program,
		Cycle:      req.Cycle,
		Role:       ref,
	})
	if err != nil {
		s.observeInvariant(err, "student-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toStudentResponse(student))
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.students.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
