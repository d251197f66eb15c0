// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proyecta/proyecta/internal/fault"
	"github.com/proyecta/proyecta/internal/identity"
)

func TestRoleRepository_GetByID(t *testing.T) {
	id := ulid.Make()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantName  string
		wantErr   bool
		notFound  bool
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "name", "description"}).
					AddRow(id.String(), "TUTOR", "supervising accounts")
				mock.ExpectQuery(`SELECT id, name, description FROM role WHERE id`).
					WithArgs(id.String()).
					WillReturnRows(rows)
			},
			wantName: "TUTOR",
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, description FROM role WHERE id`).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description"}))
			},
			wantErr:  true,
			notFound: true,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, description FROM role WHERE id`).
					WithArgs(id.String()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewRoleRepository(mock)
			role, err := repo.GetByID(context.Background(), id)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.notFound, fault.IsNotFound(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, role.Name)
				assert.Equal(t, id, role.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRoleRepository_CreateUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	role := &identity.Role{ID: ulid.Make(), Name: "TUTOR"}
	mock.ExpectExec(`INSERT INTO role`).
		WithArgs(role.ID.String(), role.Name, role.Description).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err = NewRoleRepository(mock).Create(context.Background(), role)
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_DeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := ulid.Make()
	mock.ExpectExec(`DELETE FROM role WHERE id`).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewRoleRepository(mock).Delete(context.Background(), id)
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_DeleteReferencedIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := ulid.Make()
	mock.ExpectExec(`DELETE FROM role WHERE id`).
		WithArgs(id.String()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	err = NewRoleRepository(mock).Delete(context.Background(), id)
	require.Error(t, err)
	assert.True(t, fault.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_ExistsByName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("TUTOR").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewRoleRepository(mock).ExistsByName(context.Background(), "TUTOR")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
