// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"time"

	"github.com/toeirei/seatmaster/internal/model"
)

// Status is the lifecycle phase of a view-state.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Source tells where the data of a view-state came from.
type Source int

const (
	SourceLocal Source = iota
	SourceRemote
)

func (s Source) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "local"
}

// ViewState is one immutable snapshot of what an operator surface shows.
// Err is set only with StatusError; the data fields then hold the last local
// snapshot so the surface stays usable.
type ViewState struct {
	Status       Status
	Source       Source
	Customers    []model.Customer
	Tables       []model.Table
	Reservations []model.Reservation
	Err          error
	UpdatedAt    time.Time
}

// AvailableTables returns the tables that can currently be reserved.
func (v ViewState) AvailableTables() []model.Table {
	out := make([]model.Table, 0, len(v.Tables))
	for _, t := range v.Tables {
		if t.Available {
			out = append(out, t)
		}
	}
	return out
}

// ReservationFor returns the reservation held by customerID, if any.
func (v ViewState) ReservationFor(customerID int) (model.Reservation, bool) {
	for _, r := range v.Reservations {
		if r.CustomerID == customerID {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// Customer looks up a customer by id.
func (v ViewState) Customer(id int) (model.Customer, bool) {
	for _, c := range v.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return model.Customer{}, false
}
