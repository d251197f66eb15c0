// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/proyecta/proyecta/internal/identity"
)

// Handler builds the HTTP router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.observe)
	r.Use(s.recoverPanic)

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register-admin", s.handleRegisterAdmin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.requireRole(identity.RoleTutor, identity.RoleAdmin))

			r.Route("/tutors", func(r chi.Router) {
				r.Get("/", s.handleListTutors)
				r.Post("/", s.handleCreateTutor)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetTutor)
					r.Put("/", s.handleUpdateTutor)
					r.Patch("/", s.handlePatchTutor)
					r.Delete("/", s.handleDeleteTutor)
				})
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", s.handleListStudents)
				r.Post("/", s.handleCreateStudent)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetStudent)
					r.Put("/", s.handleUpdateStudent)
					r.Patch("/", s.handlePatchStudent)
					r.Delete("/", s.handleDeleteStudent)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.handleListProjects)
				r.Post("/", s.handleCreateProject)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetProject)
					r.Put("/", s.handleUpdateProject)
					r.Patch("/", s.handlePatchProject)
					r.Delete("/", s.handleDeleteProject)
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", s.handleListRoles)
				r.Get("/{id}", s.handleGetRole)

				// Role mutations are reserved to the administrator
				r.Group(func(r chi.Router) {
					r.Use(s.requireRole(identity.RoleAdmin))

					r.Post("/", s.handleCreateRole)
					r.Put("/{id}", s.handleUpdateRole)
					r.Patch("/{id}", s.handlePatchRole)
					r.Delete("/{id}", s.handleDeleteRole)
				})
			})
		})
	})

	return r
}
