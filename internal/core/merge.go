// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"sort"
	"time"

	"github.com/toeirei/seatmaster/internal/model"
)

// MergeCustomers returns the customer list to keep. The remote list fully
// replaces the local one, including when it is empty; when the remote fetch
// failed the local list is kept.
func MergeCustomers(local, remote []model.Customer, remoteOK bool) []model.Customer {
	src := local
	if remoteOK {
		src = remote
	}
	out := make([]model.Customer, len(src))
	copy(out, src)
	return out
}

// MergeTables combines local and remote tables. Remote availability wins for
// every table number it reports; local tables the remote does not mention are
// kept unchanged. The result is ordered by number.
func MergeTables(local, remote []model.Table) []model.Table {
	byNumber := make(map[int]model.Table, len(local)+len(remote))
	for _, t := range local {
		byNumber[t.Number] = t
	}
	for _, t := range remote {
		byNumber[t.Number] = t
	}
	out := make([]model.Table, 0, len(byNumber))
	for _, t := range byNumber {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// OverlayReservations marks every table held by an unexpired reservation as
// unavailable. The input slice is not modified.
func OverlayReservations(tables []model.Table, reservations []model.Reservation, now time.Time) []model.Table {
	held := make(map[int]bool, len(reservations))
	for _, r := range reservations {
		if !r.Expired(now) {
			held[r.TableNumber] = true
		}
	}
	out := make([]model.Table, len(tables))
	for i, t := range tables {
		if held[t.Number] {
			t.Available = false
		}
		out[i] = t
	}
	return out
}
