package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
	"github.com/uptrace/bun"
)

// insertChunkSize bounds the number of rows per multi-row INSERT so large
// remote snapshots stay below driver placeholder limits.
const insertChunkSize = 200

// CustomerModel maps the `customers` table for Bun queries.
type CustomerModel struct {
	bun.BaseModel `bun:"table:customers"`
	ID            int       `bun:"id,pk"`
	FirstName     string    `bun:"first_name"`
	LastName      string    `bun:"last_name"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero"`
}

// TableModel maps the `dining_tables` table.
type TableModel struct {
	bun.BaseModel `bun:"table:dining_tables"`
	Number        int  `bun:"number,pk"`
	Available     bool `bun:"available"`
}

// ReservationModel maps the `reservations` table.
type ReservationModel struct {
	bun.BaseModel `bun:"table:reservations"`
	ID            string    `bun:"id,pk"`
	CustomerID    int       `bun:"customer_id"`
	TableNumber   int       `bun:"table_number"`
	CreatedAt     time.Time `bun:"created_at"`
	ExpiresAt     time.Time `bun:"expires_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int       `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp"`
	Username      string    `bun:"username"`
	Action        string    `bun:"action"`
	Details       string    `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---

func customerModelToModel(c CustomerModel) model.Customer {
	return model.Customer{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}
}

func customerToModel(c model.Customer, now time.Time) CustomerModel {
	return CustomerModel{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName, UpdatedAt: now}
}

func tableModelToModel(t TableModel) model.Table {
	return model.Table{Number: t.Number, Available: t.Available}
}

func reservationModelToModel(r ReservationModel) model.Reservation {
	return model.Reservation{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		TableNumber: r.TableNumber,
		CreatedAt:   r.CreatedAt.UTC(),
		ExpiresAt:   r.ExpiresAt.UTC(),
	}
}

func reservationToModel(r model.Reservation) ReservationModel {
	return ReservationModel{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		TableNumber: r.TableNumber,
		CreatedAt:   r.CreatedAt.UTC(),
		ExpiresAt:   r.ExpiresAt.UTC(),
	}
}

func auditLogModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details}
}

// currentUsername returns the OS user recorded in the audit trail.
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// upsert turns q into an INSERT that updates cols when conflictCol already exists.
func upsert(dbType string, q *bun.InsertQuery, conflictCol string, cols ...string) *bun.InsertQuery {
	if dbType == "mysql" {
		q = q.On("DUPLICATE KEY UPDATE")
		for _, c := range cols {
			q = q.Set(fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
		return q
	}
	q = q.On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", conflictCol))
	for _, c := range cols {
		q = q.Set(fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	return q
}

// insertIgnore turns q into an INSERT that skips rows violating a unique key.
func insertIgnore(dbType string, q *bun.InsertQuery) *bun.InsertQuery {
	if dbType == "mysql" {
		return q.Ignore()
	}
	return q.On("CONFLICT DO NOTHING")
}

// ListCustomersBun returns all customers ordered by last name, first name, id.
func ListCustomersBun(ctx context.Context, idb bun.IDB) ([]model.Customer, error) {
	var cm []CustomerModel
	if err := idb.NewSelect().Model(&cm).OrderExpr("last_name, first_name, id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Customer, 0, len(cm))
	for _, c := range cm {
		out = append(out, customerModelToModel(c))
	}
	return out, nil
}

// SearchCustomersBun performs a portable search over customers using simple
// tokenized LIKE matching across first and last name. Every token must match.
func SearchCustomersBun(ctx context.Context, idb bun.IDB, q string) ([]model.Customer, error) {
	var cm []CustomerModel
	qb := idb.NewSelect().Model(&cm)
	for _, tok := range TokenizeSearchQuery(q) {
		like := "%" + tok + "%"
		qb = qb.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)", like, like)
	}
	if err := qb.OrderExpr("last_name, first_name, id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Customer, 0, len(cm))
	for _, c := range cm {
		out = append(out, customerModelToModel(c))
	}
	return out, nil
}

// upsertCustomersBun inserts or updates the given customers in chunks.
func upsertCustomersBun(ctx context.Context, idb bun.IDB, dbType string, customers []model.Customer) error {
	now := time.Now().UTC()
	rows := make([]CustomerModel, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, customerToModel(c, now))
	}
	for start := 0; start < len(rows); start += insertChunkSize {
		chunk := rows[start:min(start+insertChunkSize, len(rows))]
		q := upsert(dbType, idb.NewInsert().Model(&chunk), "id", "first_name", "last_name", "updated_at")
		if _, err := q.Exec(ctx); err != nil {
			return MapDBError(err)
		}
	}
	return nil
}

// ListTablesBun returns all tables ordered by number.
func ListTablesBun(ctx context.Context, idb bun.IDB) ([]model.Table, error) {
	var tm []TableModel
	if err := idb.NewSelect().Model(&tm).OrderExpr("number").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Table, 0, len(tm))
	for _, t := range tm {
		out = append(out, tableModelToModel(t))
	}
	return out, nil
}

// upsertTablesBun inserts or updates the given tables. Tables absent from
// the input are left untouched.
func upsertTablesBun(ctx context.Context, idb bun.IDB, dbType string, tables []model.Table) error {
	rows := make([]TableModel, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, TableModel{Number: t.Number, Available: t.Available})
	}
	for start := 0; start < len(rows); start += insertChunkSize {
		chunk := rows[start:min(start+insertChunkSize, len(rows))]
		q := upsert(dbType, idb.NewInsert().Model(&chunk), "number", "available")
		if _, err := q.Exec(ctx); err != nil {
			return MapDBError(err)
		}
	}
	return nil
}

// ListReservationsBun returns all reservations ordered by expiry.
func ListReservationsBun(ctx context.Context, idb bun.IDB) ([]model.Reservation, error) {
	var rm []ReservationModel
	if err := idb.NewSelect().Model(&rm).OrderExpr("expires_at, id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0, len(rm))
	for _, r := range rm {
		out = append(out, reservationModelToModel(r))
	}
	return out, nil
}

// getReservationBun returns the first reservation matching where, or nil.
func getReservationBun(ctx context.Context, idb bun.IDB, where string, arg interface{}) (*model.Reservation, error) {
	var rm ReservationModel
	err := idb.NewSelect().Model(&rm).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r := reservationModelToModel(rm)
	return &r, nil
}

// LogActionBun appends an entry to the audit trail.
func LogActionBun(ctx context.Context, idb bun.IDB, action, details string) error {
	_, err := idb.NewInsert().Model(&AuditLogModel{
		Timestamp: time.Now().UTC(),
		Username:  currentUsername(),
		Action:    action,
		Details:   details,
	}).Exec(ctx)
	return err
}

// ListAuditLogBun returns audit entries, most recent first. A limit <= 0
// returns every entry.
func ListAuditLogBun(ctx context.Context, idb bun.IDB, limit int) ([]model.AuditLogEntry, error) {
	var am []AuditLogModel
	q := idb.NewSelect().Model(&am).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, auditLogModelToModel(a))
	}
	return out, nil
}
