package db

import (
	"database/sql"
	"errors"
	"fmt"

	"licitaciones/internal/rules"

	"github.com/lib/pq"
)

// Ошибки хранилища
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrProtected = errors.New("referenced by other records")
	ErrAmbiguous = errors.New("ambiguous identifier")
)

// MapPgError переводит ошибки драйвера в ошибки хранилища по SQLSTATE
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrProtected, pqErr.Constraint)
		case "23514": // check_violation
			return checkViolation(pqErr.Constraint)
		}
	}
	return err
}

// checkViolation ограничения CHECK из миграций дублируют правила из пакета rules
func checkViolation(constraint string) error {
	switch constraint {
	case "price_gt_cost":
		return &rules.ValidationError{Field: "price", Message: "price must exceed cost"}
	case "unit_price_gt_unit_cost":
		return &rules.ValidationError{Field: "unit_price", Message: rules.MsgPriceNotAboveCost}
	case "quantity_positive":
		return &rules.ValidationError{Field: "quantity", Message: "quantity must be a positive integer"}
	}
	return &rules.ValidationError{Message: "constraint " + constraint + " violated"}
}

func notFound(what string, key any) error {
	return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
}

// mapLookupError как MapPgError, но добавляет к ErrNotFound что именно не найдено
func mapLookupError(err error, what string, key any) error {
	err = MapPgError(err)
	if errors.Is(err, ErrNotFound) {
		return notFound(what, key)
	}
	return err
}
