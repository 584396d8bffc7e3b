// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It handles query
// execution and mapping between domain entities and database records; meals
// and shopping lists travel as JSONB columns.
package postgres
