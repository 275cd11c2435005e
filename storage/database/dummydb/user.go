package dummydb

import (
	"context"
	"sort"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) SaveUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email && u.ID != usr.ID {
			return user.User{}, core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email is already in use"})
		}
	}
	if existing, ok := repo.db.table[usr.ID]; ok {
		usr.CreatedAt = existing.CreatedAt
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		if filter.Role == "" || u.Role == filter.Role {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}
