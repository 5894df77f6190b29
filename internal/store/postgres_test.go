package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresFromDB(sqlx.NewDb(db, "sqlmock"), zap.NewNop()), mock
}

func TestPostgresListForSubject(t *testing.T) {
	pg, mock := newMockPostgres(t)

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("ui.theme", "dark").
		AddRow("ui.compact", "true")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM subject_overrides WHERE subject_id = $1")).
		WithArgs("subject-a").
		WillReturnRows(rows)

	values, err := pg.ListForSubject(context.Background(), "subject-a")
	if err != nil {
		t.Fatalf("ListForSubject: %v", err)
	}
	if values["ui.theme"] != "dark" || values["ui.compact"] != "true" {
		t.Errorf("values = %v", values)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresListForSubjectEmpty(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM subject_overrides")).
		WithArgs("subject-a").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	values, err := pg.ListForSubject(context.Background(), "subject-a")
	if err != nil {
		t.Fatalf("ListForSubject: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected empty mapping, got %v", values)
	}
}

func TestPostgresGet(t *testing.T) {
	pg, mock := newMockPostgres(t)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "subject_id", "key", "value", "created_at", "updated_at"}).
		AddRow(id.String(), "subject-a", "ui.theme", "dark", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subject_overrides WHERE subject_id = $1 AND key = $2")).
		WithArgs("subject-a", "ui.theme").
		WillReturnRows(rows)

	ov, err := pg.Get(context.Background(), "subject-a", "ui.theme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ov.Value != "dark" || ov.ID != id {
		t.Errorf("override = %+v", ov)
	}
}

func TestPostgresGetNotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subject_overrides")).
		WithArgs("subject-a", "ui.theme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_id", "key", "value", "created_at", "updated_at"}))

	_, err := pg.Get(context.Background(), "subject-a", "ui.theme")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresUpsert(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_overrides")).
		WithArgs(sqlmock.AnyArg(), "subject-a", "ui.theme", "dark").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pg.Upsert(context.Background(), "subject-a", "ui.theme", "dark"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpsertFailureIsPersistenceError(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_overrides")).
		WillReturnError(errors.New("connection refused"))

	err := pg.Upsert(context.Background(), "subject-a", "ui.theme", "dark")
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
	if pe.Driver != "postgres" || pe.Op != "upsert" {
		t.Errorf("pe = %+v", pe)
	}
}

func TestPostgresDelete(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_overrides WHERE subject_id = $1 AND key = $2")).
		WithArgs("subject-a", "ui.theme").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := pg.Delete(context.Background(), "subject-a", "ui.theme"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestPostgresDeleteAbsentRowIsNoop(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_overrides")).
		WithArgs("subject-a", "ui.theme").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.Delete(context.Background(), "subject-a", "ui.theme"); err != nil {
		t.Fatalf("Delete of absent row: %v", err)
	}
}
