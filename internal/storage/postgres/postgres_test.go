package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"clmm-backtest/internal/storage"
)

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError("insert run", nil))

	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: codeUniqueViolation})
	assert.ErrorIs(t, storeError("insert run", dup), storage.ErrDuplicateKey)

	assert.ErrorIs(t, storeError("get run by id", pgx.ErrNoRows), storage.ErrNotFound)

	other := &pgconn.PgError{Code: "23503"}
	err := storeError("insert step record in bulk", other)
	assert.False(t, errors.Is(err, storage.ErrDuplicateKey))
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "insert step record in bulk")
}

func TestInsertQuery(t *testing.T) {
	got := insertQuery("runs", []string{"run_id", "pool_id", "label"})
	assert.Equal(t, "INSERT INTO runs (run_id, pool_id, label) VALUES ($1, $2, $3)", got)
}
