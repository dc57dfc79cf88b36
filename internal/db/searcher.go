package db

import (
	"context"

	"github.com/toeirei/seatmaster/internal/model"
	"github.com/uptrace/bun"
)

// CustomerSearcher defines a minimal interface for searching customers.
// Consumers can depend on this instead of concrete Store implementations.
type CustomerSearcher interface {
	SearchCustomers(ctx context.Context, query string) ([]model.Customer, error)
}

// BunCustomerSearcher is a Bun-based implementation of CustomerSearcher.
type BunCustomerSearcher struct {
	bdb *bun.DB
}

// NewBunCustomerSearcher creates a new BunCustomerSearcher.
func NewBunCustomerSearcher(bdb *bun.DB) CustomerSearcher {
	return &BunCustomerSearcher{bdb: bdb}
}

// SearchCustomers delegates to the centralized Bun search helper.
func (s *BunCustomerSearcher) SearchCustomers(ctx context.Context, q string) ([]model.Customer, error) {
	return SearchCustomersBun(ctx, s.bdb, q)
}

// DefaultCustomerSearcher returns a CustomerSearcher backed by the
// package-level store if available. It returns nil when the package store is
// not initialized; callers should handle nil by falling back to
// FilterCustomersByTokens.
func DefaultCustomerSearcher() CustomerSearcher {
	if store == nil {
		return nil
	}
	return NewBunCustomerSearcher(store.BunDB())
}
