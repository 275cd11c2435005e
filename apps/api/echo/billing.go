package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/billing"
)

type billingApi struct {
	svc billing.Service
}

func registerBillingAPI(g *echo.Group, svc billing.Service) {
	api := billingApi{svc: svc}

	bg := g.Group("/billings")
	bg.GET("", api.query)
	bg.PATCH("/:id/status", api.updateStatus)
}

// Handlers

// query lists bills; students only ever see their own.
func (api *billingApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var filter billing.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if usr.IsStudent() {
		filter.StudentID = usr.ID
	}
	var ord Ordering
	ord.Bind(ctx)

	bills, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bills)
}

func (api *billingApi) updateStatus(ctx echo.Context) error {
	var data billing.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	bill, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bill)
}
