// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"

	"github.com/proyecta/proyecta/internal/identity"
)

type tutorRequest struct {
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Active        *bool  `json:"active,omitempty"`
	AcademicTitle string `json:"academic_title"`
	Department    string `json:"department"`
	roleRefBody
}

type tutorPatchRequest struct {
	GivenName     *string `json:"given_name,omitempty"`
	FamilyName    *string `json:"family_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Username      *string `json:"username,omitempty"`
	Password      *string `json:"password,omitempty"`
	Active        *bool   `json:"active,omitempty"`
	AcademicTitle *string `json:"academic_title,omitempty"`
	Department    *string `json:"department,omitempty"`
	roleRefBody
}

func (s *Server) handleListTutors(w http.ResponseWriter, r *http.Request) {
	tutors, err := s.tutors.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]tutorResponse, 0, len(tutors))
	for i := range tutors {
		out = append(out, toTutorResponse(&tutors[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTutor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	tutor, err := s.tutors.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTutorResponse(tutor))
}

func (s *Server) handleCreateTutor(w http.ResponseWriter, r *http.Request) {
	var req tutorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tutor, err := s.tutors.Create(r.Context(), identity.NewTutor{
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		Active:        req.Active,
		AcademicTitle: req.AcademicTitle,
		Department:    req.Department,
		Role:          ref,
	})
	if err != nil {
		s.observeInvariant(err, "tutor-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTutorResponse(tutor))
}

func (s *Server) handleUpdateTutor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req tutorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tutor, err := s.tutors.Update(r.Context(), id, identity.UpdateTutor{
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		Active:        req.Active,
		AcademicTitle: req.AcademicTitle,
		Department:    req.Department,
		Role:          ref,
	})
	if err != nil {
		s.observeInvariant(err, "tutor-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTutorResponse(tutor))
}

func (s *Server) handlePatchTutor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req tutorPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := req.toRef()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tutor, err := s.tutors.Patch(r.Context(), id, identity.TutorPatch{
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		Email:         req.Email,
		Username:      req.Username,
		Password:      req.Password,
		Active:        req.Active,
		AcademicTitle: req.AcademicTitle,
		Department:    req.Department,
		Role:          ref,
	})
	if err != nil {
		s.observeInvariant(err, "tutor-role")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTutorResponse(tutor))
}

func (s *Server) handleDeleteTutor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.tutors.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
