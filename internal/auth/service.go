// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package auth

import (
	"context"

	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
	"github.com/proyecta/proyecta/internal/store"
)

// Defaults applied by the bootstrap operation when the request omits them.
const (
	bootstrapEmail     = "admin@acceso.com"
	bootstrapUsername  = "ADMIN"
	bootstrapPassword  = "admin1234"
	bootstrapGivenName = "ADMIN"
	bootstrapFamily    = "ADMIN"
)

// defaultRoleClaim is the role embedded in a token for an account that has
// no role reference.
const defaultRoleClaim = "USER"

// dummyPasswordHash is verified against when a username doesn't exist, so
// login latency does not reveal whether the principal was found.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Session is the result of a successful login.
type Session struct {
	Token    string
	Type     string
	Username string
	Role     string
}

// BootstrapAdmin is the optional input for the one-time first-admin
// registration. Zero-value fields fall back to the fixed defaults.
type BootstrapAdmin struct {
	GivenName  string
	FamilyName string
	Email      string
	Username   string
	Password   string
}

// Gate authenticates login requests and performs the one-time admin
// bootstrap. Token verification itself lives on the TokenAuthority.
type Gate struct {
	tx       store.TxRunner
	tutors   *identity.TutorService
	registry *identity.Registry
	roles    identity.RoleRepository
	hasher   identity.PasswordHasher
	tokens   *TokenAuthority
}

// NewGate creates a Gate.
func NewGate(tx store.TxRunner, tutors *identity.TutorService, registry *identity.Registry, roles identity.RoleRepository, hasher identity.PasswordHasher, tokens *TokenAuthority) *Gate {
	return &Gate{
		tx:       tx,
		tutors:   tutors,
		registry: registry,
		roles:    roles,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Login verifies the username/password pair against the tutor store and
// issues a token on success. Unknown username and wrong password produce
// the same failure; a dummy hash is verified in the unknown-username case
// to keep response times uniform.
func (g *Gate) Login(ctx context.Context, username, password string) (*Session, error) {
	tutor, lookupErr := g.tutors.GetByUsername(ctx, username)

	targetHash := dummyPasswordHash
	exists := false
	if lookupErr == nil {
		targetHash = tutor.PasswordHash
		exists = true
	} else if !fault.IsNotFound(lookupErr) {
		return nil, oops.Code("LOGIN_FAILED").
			With("operation", "get tutor by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := g.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		return nil, oops.Code("LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, oops.Code("LOGIN_INVALID_CREDENTIALS").
			Wrapf(fault.ErrUnauthenticated, "invalid username or password")
	}

	// A deactivated account fails the same way as bad credentials, so a
	// caller cannot tell a disabled principal from an unknown one.
	if !tutor.Active {
		return nil, oops.Code("LOGIN_INVALID_CREDENTIALS").
			Wrapf(fault.ErrUnauthenticated, "invalid username or password")
	}

	role := defaultRoleClaim
	if tutor.RoleID != nil {
		r, err := g.roles.GetByID(ctx, *tutor.RoleID)
		if err != nil && !fault.IsNotFound(err) {
			return nil, oops.Code("LOGIN_FAILED").
				With("operation", "resolve role").
				Wrap(err)
		}
		if err == nil {
			role = r.Name
		}
	}

	token, err := g.tokens.Issue(tutor.Username, role)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:    token,
		Type:     "Bearer",
		Username: tutor.Username,
		Role:     role,
	}, nil
}

// Bootstrap creates the first ADMIN account. It is the only path that
// creates the ADMIN role record, and it is permanently Conflict once any
// ADMIN account exists. The whole operation, including the count check,
// runs in one transaction.
func (g *Gate) Bootstrap(ctx context.Context, in BootstrapAdmin) (*identity.Tutor, error) {
	applyBootstrapDefaults(&in)

	var created *identity.Tutor
	err := g.tx.InTx(ctx, func(ctx context.Context) error {
		admins, err := g.tutors.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins > 0 {
			return oops.Code("ADMIN_ALREADY_EXISTS").
				Wrapf(fault.ErrConflict, "an ADMIN account already exists")
		}

		adminRole, err := g.registry.EnsureDefault(ctx, identity.RoleAdmin, "System administrator")
		if err != nil {
			return err
		}

		tutor, err := g.tutors.Create(ctx, identity.NewTutor{
			GivenName:  in.GivenName,
			FamilyName: in.FamilyName,
			Email:      in.Email,
			Username:   in.Username,
			Password:   in.Password,
			Role:       &identity.RoleRef{ID: &adminRole.ID},
		})
		if err != nil {
			return err
		}
		created = tutor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Verify delegates to the token authority. Exposed so the HTTP middleware
// depends on the gate alone.
func (g *Gate) Verify(token string) (*Principal, error) {
	return g.tokens.Verify(token)
}

func applyBootstrapDefaults(in *BootstrapAdmin) {
	if in.GivenName == "" {
		in.GivenName = bootstrapGivenName
	}
	if in.FamilyName == "" {
		in.FamilyName = bootstrapFamily
	}
	if in.Email == "" {
		in.Email = bootstrapEmail
	}
	if in.Username == "" {
		in.Username = bootstrapUsername
	}
	if in.Password == "" {
		in.Password = bootstrapPassword
	}
}
