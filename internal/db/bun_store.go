// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
	"github.com/uptrace/bun"
)

// BunStore is the Bun implementation of the Store interface. One type serves
// all dialects; dbType selects the few dialect-specific statements.
type BunStore struct {
	bun    *bun.DB
	dbType string
}

// *BunStore implements Store
var _ Store = (*BunStore)(nil)

// BunDB exposes the underlying Bun handle for searchers and maintenance.
func (s *BunStore) BunDB() *bun.DB {
	return s.bun
}

// Close closes the underlying database.
func (s *BunStore) Close() error {
	return s.bun.Close()
}

// ListCustomers retrieves all customers.
func (s *BunStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return ListCustomersBun(ctx, s.bun)
}

// SearchCustomers returns customers whose names match every token of query.
func (s *BunStore) SearchCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	return SearchCustomersBun(ctx, s.bun, query)
}

// ReplaceCustomers overwrites the stored customer list with customers.
func (s *BunStore) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		return replaceCustomersBun(ctx, tx, s.dbType, customers)
	})
}

func replaceCustomersBun(ctx context.Context, tx bun.Tx, dbType string, customers []model.Customer) error {
	if _, err := ExecRaw(ctx, tx, "DELETE FROM customers"); err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}
	if err := upsertCustomersBun(ctx, tx, dbType, customers); err != nil {
		return fmt.Errorf("failed to insert customers: %w", err)
	}
	return nil
}

// ListTables retrieves all tables.
func (s *BunStore) ListTables(ctx context.Context) ([]model.Table, error) {
	return ListTablesBun(ctx, s.bun)
}

// SaveTables upserts tables. Stored tables that are not part of the input
// are kept, so the stored set never shrinks.
func (s *BunStore) SaveTables(ctx context.Context, tables []model.Table) error {
	if len(tables) == 0 {
		return nil
	}
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		return upsertTablesBun(ctx, tx, s.dbType, tables)
	})
}

// ListReservations retrieves all reservations, soonest expiry first.
func (s *BunStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return ListReservationsBun(ctx, s.bun)
}

// ClearReservations deletes every reservation and marks every table as
// available again. It returns the number of reservations removed.
func (s *BunStore) ClearReservations(ctx context.Context) (int, error) {
	var removed int64
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		// Raw statements: Bun refuses DELETE/UPDATE without a WHERE clause.
		res, err := ExecRaw(ctx, tx, "DELETE FROM reservations")
		if err != nil {
			return fmt.Errorf("failed to delete reservations: %w", err)
		}
		removed, _ = res.RowsAffected()
		if _, err := ExecRaw(ctx, tx, "UPDATE dining_tables SET available = ?", true); err != nil {
			return fmt.Errorf("failed to reset tables: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	dbLogf("db: cleared %d reservations", removed)
	return int(removed), nil
}

// ClearExpiredReservations deletes reservations that expired at or before
// now and frees their tables.
func (s *BunStore) ClearExpiredReservations(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		all, err := ListReservationsBun(ctx, tx)
		if err != nil {
			return err
		}
		var ids []string
		var tables []int
		for _, r := range all {
			if r.Expired(now) {
				ids = append(ids, r.ID)
				tables = append(tables, r.TableNumber)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.NewDelete().Model((*ReservationModel)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete expired reservations: %w", err)
		}
		if _, err := tx.NewUpdate().Model((*TableModel)(nil)).Set("available = ?", true).Where("number IN (?)", bun.In(tables)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to free tables: %w", err)
		}
		removed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// InTx runs fn inside a transaction with a transaction-scoped Tx.
func (s *BunStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunTx{tx: tx, dbType: s.dbType})
	})
}

// LogAction records an audit trail event.
func (s *BunStore) LogAction(ctx context.Context, action, details string) error {
	return LogActionBun(ctx, s.bun, action, details)
}

// ListAuditLog returns the most recent audit entries first.
func (s *BunStore) ListAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	return ListAuditLogBun(ctx, s.bun, limit)
}

// ExportData retrieves all data from the database for a backup.
func (s *BunStore) ExportData(ctx context.Context) (*model.BackupData, error) {
	customers, err := ListCustomersBun(ctx, s.bun)
	if err != nil {
		return nil, fmt.Errorf("failed to export customers: %w", err)
	}
	tables, err := ListTablesBun(ctx, s.bun)
	if err != nil {
		return nil, fmt.Errorf("failed to export tables: %w", err)
	}
	reservations, err := ListReservationsBun(ctx, s.bun)
	if err != nil {
		return nil, fmt.Errorf("failed to export reservations: %w", err)
	}
	audit, err := ListAuditLogBun(ctx, s.bun, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to export audit log: %w", err)
	}
	return &model.BackupData{
		SchemaVersion: BackupSchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Customers:     customers,
		Tables:        tables,
		Reservations:  reservations,
		AuditLog:      audit,
	}, nil
}

// BackupSchemaVersion is written into every export and checked on import.
const BackupSchemaVersion = 1

// ImportData restores data. With full set, all existing rows are removed
// first and the audit log is restored as well; otherwise rows are merged in
// without deleting anything and conflicting reservations are skipped.
func (s *BunStore) ImportData(ctx context.Context, data *model.BackupData, full bool) error {
	if data == nil {
		return errors.New("no backup data")
	}
	if data.SchemaVersion != BackupSchemaVersion {
		return fmt.Errorf("unsupported backup schema version %d (want %d)", data.SchemaVersion, BackupSchemaVersion)
	}
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if full {
			for _, table := range []string{"reservations", "dining_tables", "customers", "audit_log"} {
				if _, err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
		}
		if err := upsertCustomersBun(ctx, tx, s.dbType, data.Customers); err != nil {
			return fmt.Errorf("failed to import customers: %w", err)
		}
		if err := upsertTablesBun(ctx, tx, s.dbType, data.Tables); err != nil {
			return fmt.Errorf("failed to import tables: %w", err)
		}
		for _, r := range data.Reservations {
			rm := reservationToModel(r)
			if _, err := insertIgnore(s.dbType, tx.NewInsert().Model(&rm)).Exec(ctx); err != nil {
				return fmt.Errorf("failed to import reservation %s: %w", r.ID, err)
			}
		}
		if full {
			for _, e := range data.AuditLog {
				am := AuditLogModel{Timestamp: e.Timestamp.UTC(), Username: e.Username, Action: e.Action, Details: e.Details}
				if _, err := tx.NewInsert().Model(&am).Exec(ctx); err != nil {
					return fmt.Errorf("failed to import audit log: %w", err)
				}
			}
		}
		return nil
	})
}

// bunTx implements Tx on top of a Bun transaction.
type bunTx struct {
	tx     bun.Tx
	dbType string
}

func (t *bunTx) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	return replaceCustomersBun(ctx, t.tx, t.dbType, customers)
}

func (t *bunTx) SaveTables(ctx context.Context, tables []model.Table) error {
	return upsertTablesBun(ctx, t.tx, t.dbType, tables)
}

func (t *bunTx) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return ListReservationsBun(ctx, t.tx)
}

func (t *bunTx) Customer(ctx context.Context, id int) (*model.Customer, error) {
	var cm CustomerModel
	if err := t.tx.NewSelect().Model(&cm).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c := customerModelToModel(cm)
	return &c, nil
}

func (t *bunTx) Table(ctx context.Context, number int) (*model.Table, error) {
	var tm TableModel
	if err := t.tx.NewSelect().Model(&tm).Where("number = ?", number).Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	tbl := tableModelToModel(tm)
	return &tbl, nil
}

func (t *bunTx) Reservation(ctx context.Context, id string) (*model.Reservation, error) {
	return getReservationBun(ctx, t.tx, "id = ?", id)
}

func (t *bunTx) ReservationForCustomer(ctx context.Context, customerID int) (*model.Reservation, error) {
	return getReservationBun(ctx, t.tx, "customer_id = ?", customerID)
}

func (t *bunTx) ReservationForTable(ctx context.Context, tableNumber int) (*model.Reservation, error) {
	return getReservationBun(ctx, t.tx, "table_number = ?", tableNumber)
}

func (t *bunTx) InsertReservation(ctx context.Context, r model.Reservation) error {
	rm := reservationToModel(r)
	if _, err := t.tx.NewInsert().Model(&rm).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

func (t *bunTx) DeleteReservation(ctx context.Context, id string) error {
	_, err := t.tx.NewDelete().Model((*ReservationModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (t *bunTx) SetTableAvailable(ctx context.Context, number int, available bool) error {
	_, err := t.tx.NewUpdate().Model((*TableModel)(nil)).Set("available = ?", available).Where("number = ?", number).Exec(ctx)
	return err
}

func (t *bunTx) LogAction(ctx context.Context, action, details string) error {
	return LogActionBun(ctx, t.tx, action, details)
}
