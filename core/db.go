package core

import (
	"context"
)

// DB is the part of a connection pool the startup code needs; *sqlx.DB and *sql.DB satisfy it.
type DB interface {
	PingContext(ctx context.Context) error
	Close() error
}

// DBOrdering is one ORDER BY term. Field is an API name until a repository maps it to a column.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}
