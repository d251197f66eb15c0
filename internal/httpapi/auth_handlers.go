// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/auth"
	"github.com/proyecta/proyecta/internal/fault"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerAdminRequest struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.observeLogin("rejected")
		s.writeError(w, r, oops.Code("LOGIN_FIELDS_REQUIRED").
			Wrapf(fault.ErrUnauthenticated, "username and password are required"))
		return
	}

	session, err := s.gate.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.observeLogin("failure")
		s.writeError(w, r, err)
		return
	}

	s.observeLogin("success")
	s.writeJSON(w, http.StatusOK, sessionResponse{
		Token:    session.Token,
		Type:     session.Type,
		Username: session.Username,
		Role:     session.Role,
	})
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.gate.Bootstrap(r.Context(), auth.BootstrapAdmin{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toTutorResponse(created))
}

func (s *Server) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
