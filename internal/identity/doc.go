// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package identity manages academic accounts (tutors and students), the
// fixed role universe they reference, and the credential vault. The services
// in this package enforce the account-level invariants: per-variant field
// uniqueness, the single-ADMIN rule, the tutor email-domain rule, and the
// student role rule.
package identity
