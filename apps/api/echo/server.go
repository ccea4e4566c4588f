package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc      user.Service
		AcademicSvc  *academic.Service
		GradeSvc     *grade.Service
		MatriculaSvc *enrollment.Service
		MailSvc      core.EmailService

		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// SignalShutdown is called to gracefully stop the server when an
		// unrecoverable error bubbles up to the error handler.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	appJWTConfig.SigningKey = core.Conf.SecretKey
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerAcademicAPI(v1, jwt, s.opts.AcademicSvc, s.opts.Validate, s.opts.Translator)
	registerMatriculaAPI(v1, jwt, s.opts.MatriculaSvc, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerNotasAPI(v1, jwt, s.opts.GradeSvc, s.opts.AcademicSvc, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerReportesAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenido al API de Server Notas!")
}
