package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/class"
)

type classApi struct {
	svc class.Service
}

func registerClassAPI(g *echo.Group, svc class.Service) {
	api := classApi{svc: svc}

	cg := g.Group("/classes")
	cg.POST("", api.create)
	cg.GET("", api.query)

	// detail endpoints
	dg := cg.Group("/:id")
	dg.PATCH("/tuition", api.setTuition)
	dg.POST("/enrollments", api.enroll)
	dg.DELETE("/enrollments/:studentId", api.unenroll)
	dg.POST("/schedules", api.addSchedule)
	dg.GET("/schedules", api.schedules)
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

// query lists all classes to managers, their own to teachers and the enrolled ones to students.
func (api *classApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var filter class.QueryFilter
	switch {
	case usr.IsTeacher():
		filter.TeacherID = usr.ID
	case usr.IsStudent():
		filter.StudentID = usr.ID
	}
	classes, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) setTuition(ctx echo.Context) error {
	var data class.UpdateTuition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTuition")
	}
	cls, err := api.svc.SetTuitionRate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) enroll(ctx echo.Context) error {
	var data class.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *classApi) unenroll(ctx echo.Context) error {
	if err := api.svc.Unenroll(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) addSchedule(ctx echo.Context) error {
	var data class.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	sch, err := api.svc.AddSchedule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *classApi) schedules(ctx echo.Context) error {
	schedules, err := api.svc.Schedules(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, schedules)
}
