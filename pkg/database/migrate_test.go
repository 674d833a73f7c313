package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaVersionQuery = "SELECT version, dirty FROM schema_migrations LIMIT 1"

func TestSchemaVersion(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		wantVersion uint
		wantDirty   bool
		wantErr     bool
	}{
		{
			name: "applied",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(schemaVersionQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false))
			},
			wantVersion: 1,
		},
		{
			name: "dirty after failed migration",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(schemaVersionQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(2, true))
			},
			wantVersion: 2,
			wantDirty:   true,
		},
		{
			name: "never migrated",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(schemaVersionQuery)).
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(schemaVersionQuery)).
					WillReturnError(errors.New("relation does not exist"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)

			version, dirty, err := SchemaVersion(context.Background(), db)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVersion, version)
				assert.Equal(t, tt.wantDirty, dirty)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrationSourceIsEmbedded(t *testing.T) {
	src, err := MigrationSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "pricing_config", name)
}
