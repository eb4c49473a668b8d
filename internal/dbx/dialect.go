package dbx

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Dialect captures the differences between the SQL backends we support.
// Queries are written once with PostgreSQL-style $N placeholders, numbered in
// the order they appear, and rebound for other drivers.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// sqliteTimeLayout is fixed-width so that lexical order matches time order.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000-07:00"

var placeholderRe = regexp.MustCompile(`\$\d+`)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

// GooseDialect is the goose dialect name for migrations.
func (d Dialect) GooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// Rebind rewrites $N placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if d != SQLite {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

// Time converts t into the argument form the dialect stores and orders correctly.
func (d Dialect) Time(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// Placeholders renders n comma separated placeholders starting at $start.
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
