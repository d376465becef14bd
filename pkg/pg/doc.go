// Package pg provides the PostgreSQL connection pool, health probe, and
// goose migration runner shared by all Postgres-backed stores.
package pg
