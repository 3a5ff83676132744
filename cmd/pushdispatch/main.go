package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/oliverisaac/goli"
	"github.com/oliverisaac/pushdispatch/lib/dispatch"
	"github.com/oliverisaac/pushdispatch/lib/guard"
	"github.com/oliverisaac/pushdispatch/lib/health"
	"github.com/oliverisaac/pushdispatch/lib/registry"
	"github.com/oliverisaac/pushdispatch/lib/store"
	"github.com/oliverisaac/pushdispatch/lib/tracker"
	"github.com/oliverisaac/pushdispatch/lib/transport"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	goli.InitLogrus(logrus.DebugLevel)
}

// app holds everything the handlers need. registry, tracker and dispatcher
// are nil when the store or VAPID keys are not configured.
type app struct {
	cfg        types.Config
	guard      *guard.Guard
	registry   *registry.Registry
	tracker    *tracker.Tracker
	dispatcher *dispatch.Dispatcher
}

func main() {
	err := run()
	if err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	err := godotenv.Load(".env")
	if err != nil {
		logrus.Error(errors.Wrap(err, "Failed to load .env"))
	}

	tz := os.Getenv("TZ")
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return errors.Wrap(err, "failed to load timezone")
		}
		time.Local = loc
	}

	cfg, err := types.ConfigFromEnv()
	if err != nil {
		return errors.Wrap(err, "Loading config from env")
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	return newServer(a).Start(cfg.ListenAddr)
}

func newApp(cfg types.Config) (app, error) {
	var verifier guard.IdentityVerifier
	if len(cfg.JWTSecret) > 0 {
		verifier = guard.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}

	a := app{
		cfg:   cfg,
		guard: guard.New(verifier, cfg.ServiceKey),
	}
	if !cfg.StoreConfigured() {
		return a, nil
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return a, err
	}
	a.registry = registry.New(db)
	a.tracker = tracker.New(db)

	if pusher := transport.NewWebPushFromConfig(cfg); pusher != nil {
		a.dispatcher = dispatch.New(a.registry, pusher, health.New(a.registry), a.tracker, dispatch.Options{
			DefaultURL:  cfg.DefaultURL,
			SendTimeout: cfg.SendTimeout,
			MaxParallel: cfg.MaxParallel,
		})
	} else {
		logrus.Warn("VAPID keys are not set, dispatch will be unavailable")
	}

	return a, nil
}

func newServer(a app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.HTTPErrorHandler = errorHandler(e.DefaultHTTPErrorHandler)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		Skipper:           middleware.DefaultSkipper,
		StackSize:         4 << 10, // 4 KB
		DisableStackAll:   false,
		DisablePrintStack: false,
		LogLevel:          log.ERROR,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logrus.Error(errors.Wrap(err, "recovered panic:"))
			for _, l := range strings.Split(string(stack), "\n") {
				logrus.Errorf("stack: %s", strings.ReplaceAll(l, "\t", "  "))
			}
			return nil
		},
		DisableErrorHandler: false,
	}))

	e.Use(middleware.Secure())

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	userAuth := UserAuth(a.guard)
	e.POST("/push/subscribe", saveSubscription(a.registry), userAuth)
	e.POST("/push/unsubscribe", removeSubscription(a.registry), userAuth)
	e.GET("/notifications", listNotifications(a.tracker), userAuth)

	e.POST("/push/dispatch", dispatchNotification(a.dispatcher), ServiceAuth(a.guard))
	e.GET("/push/public-key", publicKey(a.cfg))

	return e
}

// errorHandler renders taxonomy errors as {success: false, error} JSON and
// leaves everything else to echo's handler.
func errorHandler(next echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		kind := types.KindOf(err)
		if kind == 0 {
			logrus.Error(err)
			var he *echo.HTTPError
			if errors.As(err, &he) {
				next(err, c)
				return
			}
		} else if kind == types.KindStore || kind == types.KindConfig {
			logrus.Error(err)
		} else {
			logrus.Debug(err)
		}

		if err := c.JSON(types.StatusOf(err), echo.Map{
			"success": false,
			"error":   types.PublicMessage(err),
		}); err != nil {
			logrus.Error(errors.Wrap(err, "writing error response"))
		}
	}
}
