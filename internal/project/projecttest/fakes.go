// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package projecttest provides an in-memory project repository for tests.
package projecttest

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/project"
)

// Repo is an in-memory project.Repository.
type Repo struct {
	mu       sync.Mutex
	projects map[ulid.ULID]project.Project
}

// NewRepo creates an empty Repo.
func NewRepo() *Repo {
	return &Repo{projects: make(map[ulid.ULID]project.Project)}
}

// Seed stores a project directly, bypassing validation.
func (r *Repo) Seed(p project.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
}

func (r *Repo) Create(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = *p
	return nil
}

func (r *Repo) GetByID(_ context.Context, id ulid.ULID) (*project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, oops.Code("PROJECT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	return &p, nil
}

func (r *Repo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if strings.EqualFold(p.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) ExistsByStudentID(_ context.Context, studentID ulid.ULID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) Update(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return oops.Code("PROJECT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *Repo) List(_ context.Context) ([]project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]project.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return oops.Code("PROJECT_NOT_FOUND").Wrap(fault.ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}

// Compile-time interface check.
var _ project.Repository = (*Repo)(nil)
