// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func withMockOpen(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	orig := sqlOpenFunc
	sqlOpenFunc = func(driverName, dsn string) (*sql.DB, error) { return dbMock, nil }
	t.Cleanup(func() {
		sqlOpenFunc = orig
		_ = dbMock.Close()
	})
	return mock
}

func TestRunDBMaintenance_Sqlite_WithMock_Success(t *testing.T) {
	mock := withMockOpen(t)

	mock.ExpectExec("PRAGMA optimize").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("VACUUM").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA wal_checkpoint\\(").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"integrity_check"}).AddRow("ok")
	mock.ExpectQuery("PRAGMA integrity_check").WillReturnRows(rows)

	if err := RunDBMaintenance("sqlite", "whatever"); err != nil {
		t.Fatalf("expected RunDBMaintenance success, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunDBMaintenance_Sqlite_WithMock_Failure(t *testing.T) {
	mock := withMockOpen(t)

	mock.ExpectExec("PRAGMA optimize").WillReturnError(errors.New("optimize fail"))

	if err := RunDBMaintenance("sqlite", "whatever"); err == nil {
		t.Fatalf("expected error when PRAGMA optimize fails")
	}
}

func TestRunDBMaintenance_Sqlite_WithMock_IntegrityFailure(t *testing.T) {
	mock := withMockOpen(t)

	mock.ExpectExec("PRAGMA optimize").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("VACUUM").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA wal_checkpoint\\(").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"integrity_check"}).AddRow("row 3 missing from index")
	mock.ExpectQuery("PRAGMA integrity_check").WillReturnRows(rows)

	if err := RunDBMaintenance("sqlite", "whatever"); err == nil {
		t.Fatalf("expected integrity_check failure")
	}
}

func TestRunDBMaintenance_Postgres_WithMock(t *testing.T) {
	mock := withMockOpen(t)
	mock.ExpectExec("VACUUM ANALYZE").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := RunDBMaintenance("postgres", "dsn"); err != nil {
		t.Fatalf("expected postgres maintenance to succeed, got: %v", err)
	}

	mock.ExpectExec("VACUUM ANALYZE").WillReturnError(errors.New("vacuum fail"))
	if err := RunDBMaintenance("postgres", "dsn"); err == nil {
		t.Fatalf("expected error when VACUUM ANALYZE fails")
	}
}

func TestRunDBMaintenance_MySQL_WithMock(t *testing.T) {
	mock := withMockOpen(t)

	rows := sqlmock.NewRows([]string{"Tables_in_db"}).AddRow("reservations")
	mock.ExpectQuery("SHOW TABLES").WillReturnRows(rows)
	mock.ExpectExec("OPTIMIZE TABLE reservations").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := RunDBMaintenance("mysql", "dsn"); err != nil {
		t.Fatalf("expected mysql maintenance to succeed, got: %v", err)
	}

	rows = sqlmock.NewRows([]string{"Tables_in_db"}).AddRow("customers")
	mock.ExpectQuery("SHOW TABLES").WillReturnRows(rows)
	mock.ExpectExec("OPTIMIZE TABLE customers").WillReturnError(errors.New("optimize fail"))
	if err := RunDBMaintenance("mysql", "dsn"); err == nil {
		t.Fatalf("expected error when OPTIMIZE TABLE fails")
	}
}

func TestRunDBMaintenance_UnsupportedType(t *testing.T) {
	_ = withMockOpen(t)
	if err := RunDBMaintenance("oracle", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestClearReservations_RollsBackOnFailure(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = dbMock.Close() }()
	s := &BunStore{bun: createBunDB(dbMock, "sqlite"), dbType: "sqlite"}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reservations").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE dining_tables").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := s.ClearReservations(context.Background()); err == nil {
		t.Fatalf("expected error when resetting tables fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
