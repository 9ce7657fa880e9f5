// Package postgres implements the storage interfaces over PostgreSQL
// with the pgvector extension, using pgx through sqlx.
package postgres
