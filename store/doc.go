// Package store provides the PostgreSQL persistence layer behind the
// credential engine, plus an in-memory implementation for tests. Postgres
// satisfies credauth.Store; every mutation the engine relies on for
// correctness is a single conditional statement or a single transaction.
package store
