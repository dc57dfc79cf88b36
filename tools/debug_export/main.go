// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// debug_export seeds an in-memory database from the built-in devremote
// fixture, places one reservation and prints what ended up in the store. With
// an argument, the result is also written there as a backup file that
// `seatmaster backup import` accepts.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"

	"github.com/toeirei/seatmaster/internal/backup"
	"github.com/toeirei/seatmaster/internal/core"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/devremote"
	"github.com/toeirei/seatmaster/internal/remote"
)

func main() {
	var out string
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	if err := run(context.Background(), os.Stdout, out); err != nil {
		fmt.Fprintf(os.Stderr, "debug_export: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, backupPath string) error {
	fixture, err := devremote.DefaultFixture()
	if err != nil {
		return err
	}
	srv := httptest.NewServer(devremote.NewRouter(devremote.NewServer(fixture), remote.DefaultCustomersPath, remote.DefaultTablesPath))
	defer srv.Close()

	st, err := db.NewStoreFromDSN("sqlite", "file:debug_export?mode=memory&cache=shared")
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	repo := core.NewRepository(st, remote.New(srv.URL), core.SystemClock())
	state, err := repo.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("seed from fixture: %w", err)
	}
	if free := state.AvailableTables(); len(free) > 0 && len(state.Customers) > 0 {
		svc := core.NewReservationService(st, core.ReservationConfig{})
		if _, err := svc.Confirm(ctx, state.Customers[0].ID, free[0].Number); err != nil {
			return fmt.Errorf("reserve: %w", err)
		}
	}

	data, err := st.ExportData(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "customers: %d\n", len(data.Customers))
	_, _ = fmt.Fprintf(w, "tables: %d\n", len(data.Tables))
	for _, r := range data.Reservations {
		_, _ = fmt.Fprintf(w, "reservation: %+v\n", r)
	}

	if backupPath == "" {
		return nil
	}
	f, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	if err := backup.Write(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
