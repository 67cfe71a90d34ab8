package persistence

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_users.sql", names[0])
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestRunMigrations_SkipsRecordedVersions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	names, err := MigrationNames()
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	for i, name := range names {
		mock.ExpectBegin()
		if i == 0 {
			mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(name).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
			mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
				WillReturnResult(pgxmock.NewResult("CREATE", 0))
		} else {
			mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(name).
				WillReturnResult(pgxmock.NewResult("INSERT", 0))
		}
		mock.ExpectCommit()
	}

	applied, err := RunMigrations(context.Background(), mock, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
