// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core contains the reservation logic: reconciling remote and local
// data into a view-state stream, confirming reservations and clearing them
// periodically. It depends on small interfaces so tests can use fakes.
package core

import (
	"context"
	"time"

	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/model"
	"github.com/toeirei/seatmaster/internal/remote"
)

// Store defines the data-store operations the core needs. *db.BunStore
// satisfies it.
type Store interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ReplaceCustomers(ctx context.Context, customers []model.Customer) error
	ListTables(ctx context.Context) ([]model.Table, error)
	SaveTables(ctx context.Context, tables []model.Table) error
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ClearReservations(ctx context.Context) (int, error)
	ClearExpiredReservations(ctx context.Context, now time.Time) (int, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error
	LogAction(ctx context.Context, action, details string) error
}

// RemoteSource fetches the remote customers and tables in one go.
// *remote.Client satisfies it.
type RemoteSource interface {
	Snapshot(ctx context.Context) (remote.Snapshot, error)
}

// Audit actions written by the core.
const (
	ActionReserve = "RESERVE"
	ActionCancel  = "CANCEL_RESERVATION"
	ActionCleanup = "CLEANUP"
	ActionSync    = "SYNC"
)
