// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/internal/model"
)

var (
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrCustomerAlreadyReserved = errors.New("customer already has a reservation")
	ErrTableNotFound           = errors.New("table not found")
	ErrTableUnavailable        = errors.New("table is not available")
	ErrReservationNotFound     = errors.New("reservation not found")
)

// DefaultReservationTTL is how long a reservation holds its table.
const DefaultReservationTTL = 10 * time.Minute

// ReservationConfig tunes a ReservationService. Zero values select defaults.
type ReservationConfig struct {
	TTL   time.Duration
	Clock Clock
	// NewID generates reservation ids; defaults to random UUIDs.
	NewID func() string
	// OnChange runs after every committed change, typically
	// Repository.ReloadLocal.
	OnChange func(ctx context.Context)
}

// ReservationService confirms and cancels reservations.
type ReservationService struct {
	store    Store
	ttl      time.Duration
	clock    Clock
	newID    func() string
	onChange func(ctx context.Context)
}

func NewReservationService(store Store, cfg ReservationConfig) *ReservationService {
	s := &ReservationService{
		store:    store,
		ttl:      cfg.TTL,
		clock:    clockOrSystem(cfg.Clock),
		newID:    cfg.NewID,
		onChange: cfg.OnChange,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultReservationTTL
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// Confirm reserves tableNumber for customerID. Both checks and the insert run
// in one transaction: the customer must not hold an unexpired reservation and
// the table must still be available. Expired reservations in the way are
// removed first. Nothing is committed when any step fails.
func (s *ReservationService) Confirm(ctx context.Context, customerID, tableNumber int) (model.Reservation, error) {
	now := s.clock.Now()
	res := model.Reservation{
		ID:          s.newID(),
		CustomerID:  customerID,
		TableNumber: tableNumber,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	var customer *model.Customer
	err := s.store.InTx(ctx, func(ctx context.Context, tx db.Tx) error {
		var err error
		customer, err = tx.Customer(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return fmt.Errorf("%w: %d", ErrCustomerNotFound, customerID)
		}

		existing, err := tx.ReservationForCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.Expired(now) {
				return fmt.Errorf("%w: table %d until %s", ErrCustomerAlreadyReserved, existing.TableNumber, existing.ExpiresAt.Format(time.Kitchen))
			}
			if err := releaseReservation(ctx, tx, *existing); err != nil {
				return err
			}
		}

		table, err := tx.Table(ctx, tableNumber)
		if err != nil {
			return err
		}
		if table == nil {
			return fmt.Errorf("%w: %d", ErrTableNotFound, tableNumber)
		}

		holder, err := tx.ReservationForTable(ctx, tableNumber)
		if err != nil {
			return err
		}
		if holder != nil {
			if !holder.Expired(now) {
				return fmt.Errorf("%w: %d", ErrTableUnavailable, tableNumber)
			}
			if err := releaseReservation(ctx, tx, *holder); err != nil {
				return err
			}
		} else if !table.Available {
			return fmt.Errorf("%w: %d", ErrTableUnavailable, tableNumber)
		}

		if err := tx.InsertReservation(ctx, res); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return fmt.Errorf("%w: %d", ErrTableUnavailable, tableNumber)
			}
			return err
		}
		if err := tx.SetTableAvailable(ctx, tableNumber, false); err != nil {
			return err
		}
		return tx.LogAction(ctx, ActionReserve, fmt.Sprintf("reservation=%s customer=%d table=%d expires=%s", res.ID, customerID, tableNumber, res.ExpiresAt.Format(time.RFC3339)))
	})
	if err != nil {
		return model.Reservation{}, err
	}

	logging.L.Info("reservation confirmed", "customer", customer.String(), "table", tableNumber, "expires", res.ExpiresAt)
	s.changed(ctx)
	return res, nil
}

// Cancel removes a reservation and frees its table.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx db.Tx) error {
		r, err := tx.Reservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("%w: %s", ErrReservationNotFound, reservationID)
		}
		if err := releaseReservation(ctx, tx, *r); err != nil {
			return err
		}
		return tx.LogAction(ctx, ActionCancel, fmt.Sprintf("reservation=%s customer=%d table=%d", r.ID, r.CustomerID, r.TableNumber))
	})
	if err != nil {
		return err
	}
	logging.L.Info("reservation cancelled", "id", reservationID)
	s.changed(ctx)
	return nil
}

func releaseReservation(ctx context.Context, tx db.Tx, r model.Reservation) error {
	if err := tx.DeleteReservation(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to delete reservation %s: %w", r.ID, err)
	}
	if err := tx.SetTableAvailable(ctx, r.TableNumber, true); err != nil {
		return fmt.Errorf("failed to free table %d: %w", r.TableNumber, err)
	}
	return nil
}

func (s *ReservationService) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
