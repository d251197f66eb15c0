// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/auth"
	"github.com/proyecta/proyecta/internal/fault"
)

type principalKey struct{}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*auth.Principal)
	return p, ok
}

// requireAuth extracts and verifies the bearer token, storing the
// principal in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, oops.Code("TOKEN_MISSING").
				Wrapf(fault.ErrUnauthenticated, "missing bearer token"))
			return
		}

		principal, err := s.gate.Verify(token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole allows the request through only when the principal's role
// claim is one of the listed roles.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				s.writeError(w, r, oops.Code("PRINCIPAL_MISSING").
					Wrapf(fault.ErrUnauthenticated, "not authenticated"))
				return
			}
			for _, role := range roles {
				if strings.EqualFold(principal.Role, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.writeError(w, r, oops.Code("ROLE_DENIED").
				With("role", principal.Role).
				Wrapf(fault.ErrForbidden, "role %s may not access this resource", principal.Role))
		})
	}
}

// observe records per-request metrics and an access log line.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, ww.Status(), elapsed)
		}
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", elapsed,
		)
	})
}

// recover converts handler panics into a 500 without killing the server.
func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel comparison per net/http contract
					panic(rec)
				}
				s.logger.Error("handler panic", "panic", rec, "path", r.URL.Path)
				s.writeError(w, r, oops.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
