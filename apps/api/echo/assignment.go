package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/assignment"
	"github.com/speakmate/speakmate/core/ledger"
)

type assignmentApi struct {
	svc      *assignment.Service
	validate *validator.Validate
}

func registerAssignmentAPI(e *echo.Echo, svc *assignment.Service, validate *validator.Validate) {
	api := assignmentApi{svc: svc, validate: validate}

	e.POST("/get-assignments", api.list)
	e.POST("/add-assignment", api.add)
	e.POST("/delete-assignment", api.retract)
	e.POST("/student-assignment-status", api.studentStatus)
	e.POST("/teacher-assignments-progress", api.teacherProgress)
}

// Handlers

func (api *assignmentApi) list(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	assignments, err := api.svc.List(ctx.Request().Context(), data.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AssignmentsResponse{Assignments: assignments})
}

func (api *assignmentApi) add(ctx echo.Context) error {
	var data AddAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddAssignmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.Add(ctx.Request().Context(), data.Email, *data.NewAssignment); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Assignment added successfully."})
}

func (api *assignmentApi) retract(ctx echo.Context) error {
	var data DeleteAssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteAssignmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ret, err := api.svc.Retract(ctx.Request().Context(), data.Email, data.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, RetractionResponse{Success: true, Retraction: ret})
}

func (api *assignmentApi) studentStatus(ctx echo.Context) error {
	var data StudentStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentStatusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	status, err := api.svc.StudentStatus(ctx.Request().Context(), data.StudentEmail, data.AssignmentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *assignmentApi) teacherProgress(ctx echo.Context) error {
	var data TeacherProgressRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherProgressRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rows, err := api.svc.TeacherProgress(ctx.Request().Context(), data.TeacherEmail)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

type (
	EmailRequest struct {
		Email string `json:"email" validate:"required"`
	}

	AssignmentsResponse struct {
		Assignments []ledger.Assignment `json:"assignments"`
	}

	AddAssignmentRequest struct {
		Email         string             `json:"email" validate:"required"`
		NewAssignment *ledger.Assignment `json:"newAssignment" validate:"required"`
	}

	DeleteAssignmentRequest struct {
		Email string `json:"email" validate:"required"`
		ID    string `json:"id" validate:"required"`
	}

	RetractionResponse struct {
		Success bool `json:"success"`
		assignment.Retraction
	}

	StudentStatusRequest struct {
		StudentEmail string `json:"studentEmail" validate:"required"`
		AssignmentID string `json:"assignmentId" validate:"required"`
	}

	TeacherProgressRequest struct {
		TeacherEmail string `json:"teacherEmail" validate:"required"`
	}
)

func (er *EmailRequest) Validate(validate *validator.Validate) error {
	er.Email = core.CleanString(er.Email)
	return validate.Struct(er)
}

func (ar *AddAssignmentRequest) Validate(validate *validator.Validate) error {
	ar.Email = core.CleanString(ar.Email)
	return validate.Struct(ar)
}

func (dr *DeleteAssignmentRequest) Validate(validate *validator.Validate) error {
	dr.Email, dr.ID = core.CleanString(dr.Email), core.CleanString(dr.ID)
	return validate.Struct(dr)
}

func (sr *StudentStatusRequest) Validate(validate *validator.Validate) error {
	sr.StudentEmail, sr.AssignmentID = core.CleanString(sr.StudentEmail), core.CleanString(sr.AssignmentID)
	return validate.Struct(sr)
}

func (tr *TeacherProgressRequest) Validate(validate *validator.Validate) error {
	tr.TeacherEmail = core.CleanString(tr.TeacherEmail)
	return validate.Struct(tr)
}
