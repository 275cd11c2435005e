package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

// postgres error codes
const (
	codeUniqueViolation    = "23505"
	codeInvalidTextRepr    = "22P02" // eg. a malformed uuid
	codeForeignKeyViolated = "23503"
)

const dateLayout = "2006-01-02"

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// trapNoRowsErr maps "no rows" (and malformed ids, which can match no row) to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows || pqCode(err) == codeInvalidTextRepr {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapListErr turns a malformed id filter into an empty result instead of a failure.
func trapListErr(err error, msg string) (empty bool, _ error) {
	if err == nil {
		return false, nil
	}
	if pqCode(err) == codeInvalidTextRepr {
		return true, nil
	}
	return false, errors.Wrap(err, msg)
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "committing transaction")
	}()
	return fn(tx)
}

// psql builds the filtered list queries; conditions are AND-ed with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func selectBuilt(ctx context.Context, db sqlx.QueryerContext, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}

// orderBy maps ordering to the columns allowed by fields (API name -> column), falling back to def.
func orderBy(ordering []core.DBOrdering, fields map[string]string, def ...string) []string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := fields[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return def
	}
	return parts
}
