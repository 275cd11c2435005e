package echoapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/attendance"
	"github.com/napthedev/edura/core/billing"
)

type cronApi struct {
	logger        core.Logger
	billingSvc    billing.Service
	attendanceSvc attendance.Service
}

func registerCronAPI(
	g *echo.Group,
	conf *core.Config,
	logger core.Logger,
	billingSvc billing.Service,
	attendanceSvc attendance.Service,
) {
	api := cronApi{
		logger:        logger,
		billingSvc:    billingSvc,
		attendanceSvc: attendanceSvc,
	}

	cg := g.Group("/cron", cronAuthMiddleware(conf))
	cg.GET("/generate-bills", api.generateBills)
	cg.GET("/mark-missed-sessions", api.markMissedSessions)
}

// cronAuthMiddleware requires "Authorization: Bearer <CRON_SECRET>" in PROD only.
func cronAuthMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !conf.IsProduction() {
				return next(ctx)
			}
			want := []byte("Bearer " + conf.CronSecret)
			got := []byte(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if conf.CronSecret == "" || subtle.ConstantTimeCompare(got, want) != 1 {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *cronApi) generateBills(ctx echo.Context) error {
	res, err := api.billingSvc.GenerateMonthlyBills(ctx.Request().Context(), core.NowFunc())
	if err != nil {
		api.logger.Error("generating monthly bills", err)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to generate bills",
			"details": err.Error(),
		})
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"billingMonth": res.BillingMonth,
		"created":      res.Created,
		"skipped":      res.Skipped,
		"timestamp":    res.Timestamp,
	})
}

func (api *cronApi) markMissedSessions(ctx echo.Context) error {
	res, err := api.attendanceSvc.MarkMissedSessions(ctx.Request().Context(), core.NowFunc())
	if err != nil {
		api.logger.Error("marking missed sessions", err)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to mark missed sessions",
			"details": err.Error(),
		})
	}
	return ctx.JSON(http.StatusOK, res)
}
