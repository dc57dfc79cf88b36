// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"strings"
	"testing"
)

// withTestStore initializes an in-memory sqlite Store for the duration of the
// provided function and restores the package-level store afterwards.
func withTestStore(t *testing.T, fn func(s *BunStore)) {
	t.Helper()

	prevStore := store
	defer func() { store = prevStore }()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	s, ok := store.(*BunStore)
	if !ok {
		t.Fatalf("store is not *BunStore")
	}
	defer func() { _ = s.Close() }()

	fn(s)
}
