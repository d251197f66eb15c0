// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/proyecta/proyecta/internal/project"
)

type projectRequest struct {
	Code          string   `json:"code"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Objectives    string   `json:"objectives"`
	SubjectArea   string   `json:"subject_area"`
	Keywords      string   `json:"keywords"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	Status        string   `json:"status"`
	FinalScore    *float64 `json:"final_score,omitempty"`
	RepositoryURL string   `json:"repository_url"`
	DocumentURL   string   `json:"document_url"`
	TutorID       string   `json:"tutor_id"`
	StudentID     string   `json:"student_id"`
}

type projectPatchRequest struct {
	Code            *string  `json:"code,omitempty"`
	Title           *string  `json:"title,omitempty"`
	Summary         *string  `json:"summary,omitempty"`
	Objectives      *string  `json:"objectives,omitempty"`
	SubjectArea     *string  `json:"subject_area,omitempty"`
	Keywords        *string  `json:"keywords,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	EndDate         *string  `json:"end_date,omitempty"`
	Status          *string  `json:"status,omitempty"`
	FinalScore      *float64 `json:"final_score,omitempty"`
	ClearFinalScore bool     `json:"clear_final_score,omitempty"`
	RepositoryURL   *string  `json:"repository_url,omitempty"`
	DocumentURL     *string  `json:"document_url,omitempty"`
	TutorID         *string  `json:"tutor_id,omitempty"`
	StudentID       *string  `json:"student_id,omitempty"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	p, err := s.projects.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tutorID, err := parseULIDField("tutor_id", req.TutorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	studentID, err := parseULIDField("student_id", req.StudentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	startDate, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	endDate, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.projects.Create(r.Context(), project.NewProject{
		Code:          req.Code,
		Title:         req.Title,
		Summary:       req.Summary,
		Objectives:    req.Objectives,
		SubjectArea:   req.SubjectArea,
		Keywords:      req.Keywords,
		StartDate:     startDate,
		EndDate:       endDate,
		Status:        project.Status(req.Status),
		FinalScore:    req.FinalScore,
		RepositoryURL: req.RepositoryURL,
		DocumentURL:   req.DocumentURL,
		TutorID:       tutorID,
		StudentID:     studentID,
	})
	if err != nil {
		s.observeInvariant(err, "project-assignment")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var tutorID, studentID *ulid.ULID
	if req.TutorID != "" {
		parsed, err := parseULIDField("tutor_id", req.TutorID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tutorID = &parsed
	}
	if req.StudentID != "" {
		parsed, err := parseULIDField("student_id", req.StudentID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		studentID = &parsed
	}
	startDate, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	endDate, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.projects.Update(r.Context(), id, project.UpdateProject{
		Code:          req.Code,
		Title:         req.Title,
		Summary:       req.Summary,
		Objectives:    req.Objectives,
		SubjectArea:   req.SubjectArea,
		Keywords:      req.Keywords,
		StartDate:     startDate,
		EndDate:       endDate,
		Status:        project.Status(req.Status),
		FinalScore:    req.FinalScore,
		RepositoryURL: req.RepositoryURL,
		DocumentURL:   req.DocumentURL,
		TutorID:       tutorID,
		StudentID:     studentID,
	})
	if err != nil {
		s.observeInvariant(err, "project-assignment")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handlePatchProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req projectPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := project.Patch{
		Code:            req.Code,
		Title:           req.Title,
		Summary:         req.Summary,
		Objectives:      req.Objectives,
		SubjectArea:     req.SubjectArea,
		Keywords:        req.Keywords,
		FinalScore:      req.FinalScore,
		ClearFinalScore: req.ClearFinalScore,
		RepositoryURL:   req.RepositoryURL,
		DocumentURL:     req.DocumentURL,
	}

	if req.Status != nil {
		status := project.Status(*req.Status)
		patch.Status = &status
	}
	if req.StartDate != nil {
		parsed, err := parseDateField("start_date", req.StartDate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.StartDate = parsed
	}
	if req.EndDate != nil {
		parsed, err := parseDateField("end_date", req.EndDate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.EndDate = parsed
	}
	if req.TutorID != nil {
		parsed, err := parseULIDField("tutor_id", *req.TutorID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.TutorID = &parsed
	}
	if req.StudentID != nil {
		parsed, err := parseULIDField("student_id", *req.StudentID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.StudentID = &parsed
	}

	p, err := s.projects.PatchProject(r.Context(), id, patch)
	if err != nil {
		s.observeInvariant(err, "project-assignment")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.projects.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
