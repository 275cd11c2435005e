package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core/resource"
)

type resourceApi struct {
	svc resource.Service
}

// registerResourceAPI registers resources, lectures, assignments & submissions. Uploads go through limit.
func registerResourceAPI(g *echo.Group, limit echo.MiddlewareFunc, svc resource.Service) {
	api := resourceApi{svc: svc}

	rg := g.Group("/resources")
	rg.POST("", api.uploadResource, limit)
	rg.GET("", api.resources)
	rg.DELETE("/:id", api.deleteResource)

	lg := g.Group("/lectures")
	lg.POST("", api.createLecture, limit)
	lg.GET("", api.lectures)
	lg.DELETE("/:id", api.deleteLecture)

	ag := g.Group("/assignments")
	ag.POST("", api.createAssignment)
	ag.GET("", api.assignments)
	ag.POST("/:id/submissions", api.submit, limit)
	ag.GET("/:id/submissions", api.submissions)
}

// Resources

func (api *resourceApi) uploadResource(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data resource.NewResource
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if data.File, err = formFile(ctx, "file"); err != nil {
		return err
	}

	res, err := api.svc.UploadResource(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *resourceApi) resources(ctx echo.Context) error {
	list, err := api.svc.Resources(ctx.Request().Context(), ctx.QueryParam("classId"))
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *resourceApi) deleteResource(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteResource(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lectures

func (api *resourceApi) createLecture(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data resource.NewLecture
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if data.Files, err = formFiles(ctx, "files"); err != nil {
		return err
	}

	lec, err := api.svc.CreateLecture(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lec)
}

func (api *resourceApi) lectures(ctx echo.Context) error {
	list, err := api.svc.Lectures(ctx.Request().Context(), ctx.QueryParam("classId"))
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *resourceApi) deleteLecture(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLecture(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Assignments & Submissions

func (api *resourceApi) createAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data resource.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	asg, err := api.svc.CreateAssignment(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *resourceApi) assignments(ctx echo.Context) error {
	list, err := api.svc.Assignments(ctx.Request().Context(), ctx.QueryParam("classId"))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *resourceApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data resource.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if data.Files, err = formFiles(ctx, "files"); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *resourceApi) submissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	list, err := api.svc.Submissions(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, list)
}
