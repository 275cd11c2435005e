package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/user"
)

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) SaveUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
		INSERT INTO users (id, name, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role
		RETURNING *`

	var row userRow
	err := repo.db.QueryRowxContext(ctx, q, usr.ID, usr.Name, usr.Email, usr.Role, usr.CreatedAt).StructScan(&row)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return user.User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: "email is already in use"})
		}
		return user.User{}, errors.Wrap(err, "saving user")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := psql.Select("*").From("users").OrderBy("name", "id")
	if filter.Role != "" {
		q = q.Where(sq.Eq{"role": filter.Role})
	}

	var rows []userRow
	if err := selectBuilt(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}
