// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/model"
	"github.com/toeirei/seatmaster/internal/remote"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 19, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeData struct {
	customers    map[int]model.Customer
	tables       map[int]model.Table
	reservations map[string]model.Reservation
	audit        []string
}

func (d fakeData) clone() fakeData {
	out := fakeData{
		customers:    make(map[int]model.Customer, len(d.customers)),
		tables:       make(map[int]model.Table, len(d.tables)),
		reservations: make(map[string]model.Reservation, len(d.reservations)),
		audit:        append([]string(nil), d.audit...),
	}
	for k, v := range d.customers {
		out.customers[k] = v
	}
	for k, v := range d.tables {
		out.tables[k] = v
	}
	for k, v := range d.reservations {
		out.reservations[k] = v
	}
	return out
}

// fakeStore is an in-memory Store. InTx works on a copy that replaces the
// committed data only when fn succeeds.
type fakeStore struct {
	mu      sync.Mutex
	data    fakeData
	listErr error
	saveErr error
	// afterTxSaveTables runs inside a transaction right after its tables are
	// written, standing in for a concurrent writer whose commit becomes
	// visible to the rest of the transaction.
	afterTxSaveTables func(d *fakeData)
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: fakeData{
		customers:    map[int]model.Customer{},
		tables:       map[int]model.Table{},
		reservations: map[string]model.Reservation{},
	}}
}

func (s *fakeStore) seed(customers []model.Customer, tables []model.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range customers {
		s.data.customers[c.ID] = c
	}
	for _, t := range tables {
		s.data.tables[t.Number] = t
	}
}

func (s *fakeStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.Customer, 0, len(s.data.customers))
	for _, c := range s.data.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data.customers = map[int]model.Customer{}
	for _, c := range customers {
		s.data.customers[c.ID] = c
	}
	return nil
}

func (s *fakeStore) ListTables(ctx context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Table, 0, len(s.data.tables))
	for _, t := range s.data.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *fakeStore) SaveTables(ctx context.Context, tables []model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, t := range tables {
		s.data.tables[t.Number] = t
	}
	return nil
}

func (s *fakeStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.data.reservations))
	for _, r := range s.data.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ClearReservations(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.data.reservations)
	s.data.reservations = map[string]model.Reservation{}
	for k, t := range s.data.tables {
		t.Available = true
		s.data.tables[k] = t
	}
	return n, nil
}

func (s *fakeStore) ClearExpiredReservations(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.data.reservations {
		if r.Expired(now) {
			delete(s.data.reservations, id)
			t := s.data.tables[r.TableNumber]
			t.Available = true
			s.data.tables[r.TableNumber] = t
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(ctx, &fakeTx{data: &work, saveErr: s.saveErr, afterSaveTables: s.afterTxSaveTables}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *fakeStore) LogAction(ctx context.Context, action, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.audit = append(s.data.audit, action)
	return nil
}

func (s *fakeStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data.audit...)
}

type fakeTx struct {
	data            *fakeData
	saveErr         error
	afterSaveTables func(d *fakeData)
}

func (t *fakeTx) ReplaceCustomers(ctx context.Context, customers []model.Customer) error {
	if t.saveErr != nil {
		return t.saveErr
	}
	t.data.customers = map[int]model.Customer{}
	for _, c := range customers {
		t.data.customers[c.ID] = c
	}
	return nil
}

func (t *fakeTx) SaveTables(ctx context.Context, tables []model.Table) error {
	if t.saveErr != nil {
		return t.saveErr
	}
	for _, tbl := range tables {
		t.data.tables[tbl.Number] = tbl
	}
	if t.afterSaveTables != nil {
		t.afterSaveTables(t.data)
	}
	return nil
}

func (t *fakeTx) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0, len(t.data.reservations))
	for _, r := range t.data.reservations {
		out = append(out, r)
	}
	return out, nil
}

func (t *fakeTx) Customer(ctx context.Context, id int) (*model.Customer, error) {
	c, ok := t.data.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *fakeTx) Table(ctx context.Context, number int) (*model.Table, error) {
	tbl, ok := t.data.tables[number]
	if !ok {
		return nil, nil
	}
	return &tbl, nil
}

func (t *fakeTx) Reservation(ctx context.Context, id string) (*model.Reservation, error) {
	r, ok := t.data.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *fakeTx) ReservationForCustomer(ctx context.Context, customerID int) (*model.Reservation, error) {
	for _, r := range t.data.reservations {
		if r.CustomerID == customerID {
			return &r, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) ReservationForTable(ctx context.Context, tableNumber int) (*model.Reservation, error) {
	for _, r := range t.data.reservations {
		if r.TableNumber == tableNumber {
			return &r, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) InsertReservation(ctx context.Context, r model.Reservation) error {
	for _, existing := range t.data.reservations {
		if existing.CustomerID == r.CustomerID || existing.TableNumber == r.TableNumber {
			return db.ErrDuplicate
		}
	}
	t.data.reservations[r.ID] = r
	return nil
}

func (t *fakeTx) DeleteReservation(ctx context.Context, id string) error {
	delete(t.data.reservations, id)
	return nil
}

func (t *fakeTx) SetTableAvailable(ctx context.Context, number int, available bool) error {
	tbl := t.data.tables[number]
	tbl.Number = number
	tbl.Available = available
	t.data.tables[number] = tbl
	return nil
}

func (t *fakeTx) LogAction(ctx context.Context, action, details string) error {
	t.data.audit = append(t.data.audit, action)
	return nil
}

// fakeRemote returns a fixed snapshot or error. block, when set, holds every
// call until it is closed.
type fakeRemote struct {
	mu    sync.Mutex
	snap  remote.Snapshot
	err   error
	calls int
	block chan struct{}
	// ctxErr is the fetch context's error once block released the call.
	ctxErr error
}

func (r *fakeRemote) Snapshot(ctx context.Context) (remote.Snapshot, error) {
	r.mu.Lock()
	r.calls++
	block := r.block
	snap, err := r.snap, r.err
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	r.mu.Lock()
	r.ctxErr = ctx.Err()
	r.mu.Unlock()
	return snap, err
}

func (r *fakeRemote) fetchCtxErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctxErr
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
