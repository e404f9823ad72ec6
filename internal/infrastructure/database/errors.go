package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"gorm.io/gorm"
)

// SQLSTATE codes the repositories branch on
const (
	sqlStateTooManyConnections   = "53300"
	sqlStateInsufficientResource = "53000"
	sqlStateOutOfMemory          = "53200"
	sqlStateCannotConnectNow     = "57P03"
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Classify wraps a PostgreSQL error with the storage sentinel it stands for.
// Errors that are not PostgreSQL errors, or are already classified, pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrResourceExhausted) ||
		errors.Is(err, repository.ErrDuplicate) ||
		errors.Is(err, repository.ErrSerialization) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateTooManyConnections, sqlStateInsufficientResource, sqlStateOutOfMemory, sqlStateCannotConnectNow:
		return fmt.Errorf("%w: %w", repository.ErrResourceExhausted, err)
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %w", repository.ErrSerialization, err)
	}
	return err
}

// RegisterErrorClassifier runs Classify after every statement so repositories
// return sentinel-wrapped errors without checking driver codes themselves
func RegisterErrorClassifier(db *gorm.DB) error {
	classify := func(tx *gorm.DB) {
		if tx.Error != nil {
			tx.Error = Classify(tx.Error)
		}
	}

	cb := db.Callback()
	steps := []struct {
		name string
		err  error
	}{
		{"create", cb.Create().After("gorm:create").Register("pos:classify_create", classify)},
		{"query", cb.Query().After("gorm:query").Register("pos:classify_query", classify)},
		{"update", cb.Update().After("gorm:update").Register("pos:classify_update", classify)},
		{"delete", cb.Delete().After("gorm:delete").Register("pos:classify_delete", classify)},
		{"row", cb.Row().After("gorm:row").Register("pos:classify_row", classify)},
		{"raw", cb.Raw().After("gorm:raw").Register("pos:classify_raw", classify)},
	}
	for _, step := range steps {
		if step.err != nil {
			return fmt.Errorf("register %s classifier: %w", step.name, step.err)
		}
	}
	return nil
}
