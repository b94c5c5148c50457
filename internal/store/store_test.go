package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pingmon/internal/probe"
	"pingmon/internal/target"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func testBatch(n int) probe.Batch {
	batch := probe.Batch{
		Job:       "nightly",
		Timestamp: time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		batch.Results = append(batch.Results, probe.Result{
			Target:  target.Target{Identifier: "10.0.0.1", Job: "nightly"},
			Success: i%2 == 0,
			Reason:  probe.ReasonTimeout,
		})
	}
	return batch
}

func TestResultStore_SaveBatch(t *testing.T) {
	params := probe.Params{Timeout: 3 * time.Second, Count: 1}

	t.Run("single chunk", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		s := &resultStore{db: gormDB, batchSize: 50}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "ping_results"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectCommit()

		err := s.SaveBatch(context.Background(), testBatch(2), params)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("splits into bounded chunks", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		s := &resultStore{db: gormDB, batchSize: 2}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "ping_results"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectQuery(`INSERT INTO "ping_results"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		err := s.SaveBatch(context.Background(), testBatch(3), params)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("empty batch skips the database", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		s := &resultStore{db: gormDB, batchSize: 50}

		err := s.SaveBatch(context.Background(), testBatch(0), params)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("insert failure surfaces as error", func(t *testing.T) {
		gormDB, mock := setupTestDB(t)
		s := &resultStore{db: gormDB, batchSize: 50}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "ping_results"`).
			WillReturnError(errors.New("connection refused"))
		mock.ExpectRollback()

		err := s.SaveBatch(context.Background(), testBatch(1), params)
		assert.Error(t, err)
	})
}
