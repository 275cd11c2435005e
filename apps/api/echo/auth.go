package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/user"
)

const contextUserKey = "user"

// Claims represents the authorization claims of a JWT issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (c Claims) User() user.User {
	return user.User{ID: c.Subject, Name: c.Name, Email: c.Email, Role: c.Role}
}

func GetUserClaims(usr user.User, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  usr.Role,
		Name:  usr.Name,
		Email: usr.Email,
	}
}

// GenerateToken generates a HS256 signed JWT token string representing the user Claims.
func GenerateToken(secret []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" || !user.IsValidRole(claims.Role) {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// authMiddleware verifies the bearer token and stores the acting user.User in the context.
// Only the token is trusted: users are not looked up.
func authMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := extractBearer(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if tokenStr == "" {
				return errUnauthorized
			}
			claims, err := parseToken(secret, tokenStr)
			if err != nil {
				return errInvalidToken.WithInternal(err)
			}
			ctx.Set(contextUserKey, claims.User())
			return next(ctx)
		}
	}
}

func contextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := contextUser(ctx); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
