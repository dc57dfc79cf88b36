// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
)

func seedReservations(store *fakeStore, now time.Time) {
	store.seed(nil, []model.Table{{Number: 0}, {Number: 1}, {Number: 2, Available: true}})
	store.data.reservations["old"] = model.Reservation{ID: "old", CustomerID: 1, TableNumber: 0, ExpiresAt: now.Add(-time.Minute)}
	store.data.reservations["new"] = model.Reservation{ID: "new", CustomerID: 2, TableNumber: 1, ExpiresAt: now.Add(time.Minute)}
}

func TestReaper_RunOnceClearsAll(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	seedReservations(store, clock.Now())
	cleared := 0
	r := NewReaper(store, ReaperConfig{Clock: clock, OnCleared: func(context.Context) { cleared++ }})

	n, err := r.RunOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("RunOnce: n=%d err=%v", n, err)
	}
	tables, _ := store.ListTables(context.Background())
	for _, tbl := range tables {
		if !tbl.Available {
			t.Fatalf("expected all tables available, table %d is not", tbl.Number)
		}
	}
	if cleared != 1 {
		t.Fatalf("expected OnCleared once, got %d", cleared)
	}
	if got := store.auditActions(); len(got) != 1 || got[0] != ActionCleanup {
		t.Fatalf("unexpected audit: %v", got)
	}

	// Nothing left: no audit entry and no notification.
	if n, _ := r.RunOnce(context.Background()); n != 0 || cleared != 1 {
		t.Fatalf("expected empty pass, n=%d cleared=%d", n, cleared)
	}
}

func TestReaper_ExpiredOnly(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	seedReservations(store, clock.Now())
	r := NewReaper(store, ReaperConfig{Clock: clock, ExpiredOnly: true})

	n, err := r.RunOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("RunOnce: n=%d err=%v", n, err)
	}
	res, _ := store.ListReservations(context.Background())
	if len(res) != 1 || res[0].ID != "new" {
		t.Fatalf("expected unexpired reservation kept, got %#v", res)
	}
}

type failingClearStore struct {
	*fakeStore
	calls atomic.Int32
}

func (s *failingClearStore) ClearReservations(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 0, errors.New("locked")
}

func TestReaper_RunKeepsGoingOnErrors(t *testing.T) {
	store := &failingClearStore{fakeStore: newFakeStore()}
	r := NewReaper(store, ReaperConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if store.calls.Load() < 2 {
		t.Fatalf("expected several passes despite errors, got %d", store.calls.Load())
	}
}

func TestNewReaper_DefaultInterval(t *testing.T) {
	if got := NewReaper(newFakeStore(), ReaperConfig{}).Interval(); got != DefaultCleanupInterval {
		t.Fatalf("expected default interval, got %v", got)
	}
}

func TestRunEvery_RejectsZeroInterval(t *testing.T) {
	if err := RunEvery(context.Background(), 0, func(context.Context) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
