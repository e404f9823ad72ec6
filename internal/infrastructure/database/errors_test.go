package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		transient bool
	}{
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, want: repository.ErrResourceExhausted, transient: true},
		{name: "out of memory", err: &pgconn.PgError{Code: "53200"}, want: repository.ErrResourceExhausted, transient: true},
		{name: "starting up", err: &pgconn.PgError{Code: "57P03"}, want: repository.ErrResourceExhausted, transient: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: repository.ErrDuplicate},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: repository.ErrSerialization},
		{name: "wrapped", err: fmt.Errorf("insert sale: %w", &pgconn.PgError{Code: "23505"}), want: repository.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.transient, repository.IsTransient(got))

			var pgErr *pgconn.PgError
			assert.True(t, errors.As(got, &pgErr), "driver error stays reachable")
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	assert.NoError(t, Classify(nil))

	plain := errors.New("syntax error")
	assert.Same(t, plain, Classify(plain))

	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(check), Classify(check))

	already := fmt.Errorf("%w: once", repository.ErrDuplicate)
	assert.Same(t, already, Classify(already))
}
