// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package model contains the core data structures for Seatmaster.
// These types are shared by the store, the remote client, the reconciliation
// logic and the operator surfaces.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Customer is a guest that can be seated. IDs are assigned by the remote
// source and treated as opaque.
type Customer struct {
	ID        int
	FirstName string
	LastName  string
}

// String returns the display name of the customer.
func (c Customer) String() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return fmt.Sprintf("#%d", c.ID)
	}
	return name
}

// Table is a numbered seating unit.
type Table struct {
	Number    int
	Available bool
}

// String returns a short label such as "Table 4".
func (t Table) String() string {
	return fmt.Sprintf("Table %d", t.Number)
}

// Reservation links a customer to a table until ExpiresAt.
type Reservation struct {
	ID          string
	CustomerID  int
	TableNumber int
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the reservation is no longer valid at now.
func (r Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// AuditLogEntry is a single row of the audit trail.
type AuditLogEntry struct {
	ID        int
	Timestamp time.Time
	Username  string
	Action    string
	Details   string
}

// BackupData is the full content of the store used by backup export/import.
type BackupData struct {
	SchemaVersion int             `json:"schema_version"`
	ExportedAt    time.Time       `json:"exported_at"`
	Customers     []Customer      `json:"customers"`
	Tables        []Table         `json:"tables"`
	Reservations  []Reservation   `json:"reservations"`
	AuditLog      []AuditLogEntry `json:"audit_log"`
}
