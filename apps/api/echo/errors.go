package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "usuario no autenticado")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "credenciales inválidas")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "cuenta desactivada")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "la sesión ha expirado")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permiso denegado")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "no encontrado")
)

// newAppHTTPErrorHandler renders known error types as JSON. Validation errors
// become a {field: message} map, plain messages become {"error": message}.
// signalShutdown is invoked when a core shutdown error bubbles up.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch cause := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if cause == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = cause.Message
				break
			}
			if herr, ok := cause.Internal.(*echo.HTTPError); ok {
				cause = herr
			}
			code = cause.Code
			message = cause.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(cause))
			for _, vErr := range cause {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			if cause.Fields == nil {
				message = cause.Error()
				break
			}
			fldErrs := make(map[string]string, len(cause.Fields))
			for _, fErr := range cause.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		default:
			// anything else is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.UserID()
				usr.DNI = claims.DNI
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
