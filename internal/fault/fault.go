// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package fault defines the sentinel error kinds shared across the domain
// services. Services wrap these with oops codes and context; the transport
// layer maps each kind to an HTTP status.
package fault

import "errors"

var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness or cross-entity invariant violation.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the operation is not permitted for the caller.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates bad credentials or an invalid token.
	// Callers must not distinguish unknown principal from wrong password.
	ErrUnauthenticated = errors.New("authentication failed")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsForbidden reports whether err wraps ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsUnauthenticated reports whether err wraps ErrUnauthenticated.
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
