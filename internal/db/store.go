// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
	"github.com/uptrace/bun"
)

// Store defines the interface for all database operations in Seatmaster.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Customer methods
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)
	ReplaceCustomers(ctx context.Context, customers []model.Customer) error

	// Table methods
	ListTables(ctx context.Context) ([]model.Table, error)
	SaveTables(ctx context.Context, tables []model.Table) error

	// Reservation methods
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ClearReservations(ctx context.Context) (int, error)
	ClearExpiredReservations(ctx context.Context, now time.Time) (int, error)

	// InTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Audit Log methods
	LogAction(ctx context.Context, action, details string) error
	ListAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)

	// Backup methods
	ExportData(ctx context.Context) (*model.BackupData, error)
	ImportData(ctx context.Context, data *model.BackupData, full bool) error

	BunDB() *bun.DB
	Close() error
}

// Tx is the transaction-scoped view of the store used by the reservation
// confirmation logic and the remote refresh. Lookups return (nil, nil) when
// the row does not exist.
type Tx interface {
	ReplaceCustomers(ctx context.Context, customers []model.Customer) error
	SaveTables(ctx context.Context, tables []model.Table) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	Customer(ctx context.Context, id int) (*model.Customer, error)
	Table(ctx context.Context, number int) (*model.Table, error)
	Reservation(ctx context.Context, id string) (*model.Reservation, error)
	ReservationForCustomer(ctx context.Context, customerID int) (*model.Reservation, error)
	ReservationForTable(ctx context.Context, tableNumber int) (*model.Reservation, error)
	InsertReservation(ctx context.Context, r model.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	SetTableAvailable(ctx context.Context, number int, available bool) error
	LogAction(ctx context.Context, action, details string) error
}
