package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/questforge/questforge/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	got := MapError(nil, "syllabus", uuid.New())
	if got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got := MapError(pgx.ErrNoRows, "syllabus", id)

	if got == nil {
		t.Fatal("MapError(ErrNoRows) = nil, want error")
	}
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := fmt.Sprintf("syllabus %s: not found", id); got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	got := MapError(wrapped, "card", id)

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_UniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	got := MapError(pgErr, "user", "ana@example.com")

	if !errors.Is(got, domain.ErrAlreadyExists) {
		t.Errorf("MapError(23505) does not wrap domain.ErrAlreadyExists: %v", got)
	}
}

func TestMapError_ForeignKeyViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23503", Message: "foreign key violation"}
	got := MapError(pgErr, "question", uuid.New())

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(23503) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_CheckViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23514", Message: "check violation"}
	got := MapError(pgErr, "card", uuid.New())

	if !errors.Is(got, domain.ErrValidation) {
		t.Errorf("MapError(23514) does not wrap domain.ErrValidation: %v", got)
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	got := MapError(context.DeadlineExceeded, "card", uuid.New())
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Errorf("MapError must pass context.DeadlineExceeded through: %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) {
		t.Error("context errors must not map to domain errors")
	}

	got = MapError(context.Canceled, "card", uuid.New())
	if !errors.Is(got, context.Canceled) {
		t.Errorf("MapError must pass context.Canceled through: %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "review_cards_user_id_question_id_key"}

	if !IsUniqueViolation(pgErr, "") {
		t.Error("expected any-constraint match")
	}
	if !IsUniqueViolation(pgErr, "review_cards_user_id_question_id_key") {
		t.Error("expected named-constraint match")
	}
	if IsUniqueViolation(pgErr, "other_constraint") {
		t.Error("expected mismatch on different constraint")
	}
	if IsUniqueViolation(errors.New("not a pg error"), "") {
		t.Error("expected false for non-pg error")
	}
}
