package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

var ErrNotFound = core.NewNotFoundError("user")

type (
	Repository interface {
		// SaveUser inserts usr or updates the existing row with the same ID.
		SaveUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, id string) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		Query(ctx context.Context, filter QueryFilter) ([]User, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate) Service {
	return &service{repo: repo, validate: validate}
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.SaveUser(ctx, User{
		ID:        nu.ID,
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: core.NowFunc().UTC(),
	})
	return usr, errors.Wrap(err, "saving user")
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	if filter.Role != "" && !IsValidRole(filter.Role) {
		return []User{}, nil
	}
	return svc.repo.QueryUsers(ctx, filter)
}
