// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package identity_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/identity"
)

func newULID(t *testing.T) ulid.ULID {
	t.Helper()
	return ulid.Make()
}

// stubHasher avoids argon2 cost in service tests.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "stub:" + password, nil
}

func (stubHasher) Verify(password, hash string) (bool, error) {
	if len(hash) < 5 || hash[:5] != "stub:" {
		return false, oops.Errorf("malformed stub hash")
	}
	return hash == "stub:"+password, nil
}

var _ identity.PasswordHasher = stubHasher{}
