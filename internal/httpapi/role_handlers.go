// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/proyecta/proyecta/internal/identity"
)

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type rolePatchRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := parseULIDField("id", chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return ulid.ULID{}, false
	}
	return id, true
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.registry.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	role, err := s.registry.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.registry.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.observeInvariant(err, "role-name")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.registry.Update(r.Context(), id, req.Name, req.Description)
	if err != nil {
		s.observeInvariant(err, "role-name")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) handlePatchRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req rolePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.registry.Patch(r.Context(), id, identity.RolePatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.observeInvariant(err, "role-name")
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.registry.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
