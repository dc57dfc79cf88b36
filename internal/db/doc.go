// Package db contains the local reservation cache and the small helpers used
// around it.
//
// The cache is the only state the application owns: customers and tables as
// last seen from the remote source, plus the reservations created locally.
// Store is the full interface; Tx is the transaction-scoped subset the
// reservation confirmation runs against so that its two checks and the
// insert observe one consistent snapshot.
//
// Searchers
//   - DefaultCustomerSearcher returns a Bun-backed searcher when the
//     package-level store has been initialized (via InitDB or New) and nil
//     otherwise. Callers fall back to FilterCustomersByTokens on nil.
//
// Dialects
//   - SQLite (modernc.org/sqlite) is the default. PostgreSQL (pgx stdlib) and
//     MySQL are supported through the same BunStore; migrations are embedded
//     per dialect under migrations/.
//
// Testing notes
//   - Prefer an in-memory sqlite DSN ("file:<name>?mode=memory&cache=shared")
//     in tests that need real DB semantics and migrations.
//   - RunDBMaintenance and transaction failure paths are covered with
//     go-sqlmock by overriding sqlOpenFunc.
package db
