package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var vErr *core.ValidationError
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, fErr := range origErr {
				fldErrs[fErr.Field()] = fErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		default:
			switch {
			case errors.As(err, &vErr):
				if vErr.Fields != nil {
					fldErrs := make(map[string]string, len(vErr.Fields))
					for _, fErr := range vErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = vErr.Error()
				}
				code = http.StatusBadRequest
			case core.IsNotFound(err):
				code = http.StatusNotFound
				message = notFoundMessage(err)
			case errors.Is(err, core.ErrForbidden):
				code = http.StatusForbidden
				message = core.ErrForbidden.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var person core.Person
				if usr, ok := contextUser(ctx); ok {
					person = usr.Person()
				}
				logger.Error(msg, errors.Wrap(err, msg), person)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// notFoundMessage returns the "<object> not found" text of the first NotFoundError in err's chain.
func notFoundMessage(err error) string {
	var nfErr *core.NotFoundError
	if errors.As(err, &nfErr) {
		return nfErr.Error()
	}
	return core.ErrNotFound.Error()
}
