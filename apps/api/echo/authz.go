package echoapi

import (
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var (
	//go:embed authz/model.conf
	authzModel string

	//go:embed authz/policy.csv
	authzPolicy string
)

// enforcer decides which role may call which route, by exact role string.
type enforcer struct {
	*casbin.SyncedEnforcer
}

func newEnforcer() (*enforcer, error) {
	m, err := model.NewModelFromString(authzModel)
	if err != nil {
		return nil, errors.Wrap(err, "loading casbin model")
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating casbin enforcer")
	}
	if err = loadPolicy(e, authzPolicy); err != nil {
		return nil, err
	}
	return &enforcer{e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = e.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = e.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = errors.Errorf("malformed policy line %q", line)
		}
		if err != nil {
			return errors.Wrapf(err, "loading policy %q", line)
		}
	}
	return nil
}

func (e *enforcer) allowed(role, path, method string) (bool, error) {
	if role == "" {
		return false, nil
	}
	return e.Enforce(role, path, method)
}

// authzMiddleware checks the context user's role against the route pattern. It must run after authMiddleware.
func authzMiddleware(e *enforcer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			ok, err := e.allowed(usr.Role, ctx.Path(), ctx.Request().Method)
			if err != nil {
				return errors.Wrap(err, "enforcing policy")
			}
			if !ok {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
