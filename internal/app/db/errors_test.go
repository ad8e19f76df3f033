package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestSQLStateHelpers(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	deadlock := &pgconn.PgError{Code: "40P01"}
	serialization := fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"})

	require.True(t, IsUniqueViolation(unique))
	require.False(t, IsRetryable(unique))

	require.True(t, IsRetryable(deadlock))
	require.True(t, IsRetryable(serialization))
	require.False(t, IsUniqueViolation(serialization))

	require.False(t, IsUniqueViolation(errors.New("connection reset")))
	require.False(t, IsRetryable(nil))
}
