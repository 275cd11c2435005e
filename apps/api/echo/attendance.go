package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance")
	ag.POST("", api.record)
	ag.GET("", api.query)
}

// Handlers

func (api *attendanceApi) record(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data attendance.NewAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	log, err := api.svc.Record(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var filter attendance.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if usr.IsTeacher() {
		filter.TeacherID = usr.ID
	}
	logs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, logs)
}
