package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
	"github.com/napthedev/edura/core/class"
	"github.com/napthedev/edura/core/resource"
	"github.com/napthedev/edura/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		RequestLogger *zerolog.Logger // nil disables request logs
		UserSvc       user.Service
		ClassSvc      class.Service
		BillingSvc    billing.Service
		AttendanceSvc attendance.Service
		ResourceSvc   resource.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
		enforcer *enforcer
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) (Server, error) {
	enf, err := newEnforcer()
	if err != nil {
		return nil, errors.Wrap(err, "creating enforcer")
	}

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
		enforcer: enf,
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s, nil
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.JSONSerializer = jsonSerializer{}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if s.deps.RequestLogger != nil {
		s.app.Use(requestLogger(s.deps.RequestLogger))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if conf.Storage.Backend == "local" && conf.Storage.LocalDir != "" {
		dir := conf.Storage.LocalDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(conf.WorkDir, dir)
		}
		s.app.Static("/uploads", dir)
	}

	api := s.app.Group("/api")
	registerCronAPI(api, conf, s.deps.Logger, s.deps.BillingSvc, s.deps.AttendanceSvc)

	authed := api.Group("", authMiddleware([]byte(conf.AuthSecret)), authzMiddleware(s.enforcer))
	upload := uploadRateLimiter(conf.Server.UploadRateLimit)

	registerUserAPI(authed, s.deps.UserSvc)
	registerClassAPI(authed, s.deps.ClassSvc)
	registerBillingAPI(authed, s.deps.BillingSvc)
	registerAttendanceAPI(authed, s.deps.AttendanceSvc)
	registerResourceAPI(authed, upload, s.deps.ResourceSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Edura API!")
}
