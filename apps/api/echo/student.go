package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(e *echo.Echo, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	e.POST("/getUserData", api.retrieve)
	e.GET("/students", api.roster)
	e.POST("/student-overall-progress", api.overallProgress)
	e.POST("/create_account", api.create)

	// play actions
	e.POST("/updatehints", api.incrementHint)
	e.POST("/increment-score", api.solveScramble)
	e.POST("/updateWordsearchScore", api.solveSearch)
	e.POST("/updateVocabularyArchadeScore", api.solveVocabulary)
	e.POST("/updateVocabularyBadge", api.updateBadge)
	e.POST("/updateDailyData", api.updateDailyData)
}

// Handlers

func (api *studentApi) retrieve(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Get(ctx.Request().Context(), data.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *studentApi) roster(ctx echo.Context) error {
	var params RosterParams
	if err := ctx.Bind(&params); err != nil {
		return errors.Wrap(err, "binding to RosterParams")
	}
	if err := params.Validate(api.validate); err != nil {
		return err
	}

	var ord Ordering
	ord.Bind(ctx)

	rows, err := api.svc.Roster(ctx.Request().Context(), params.Class, params.Section, ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *studentApi) overallProgress(ctx echo.Context) error {
	var data OverallProgressRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OverallProgressRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	overall, err := api.svc.OverallProgress(ctx.Request().Context(), data.StudentEmail)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overall)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data ledger.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	data.Email = core.CleanString(data.Email)
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	_, outcome, err := api.svc.CreateAccount(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	if outcome == student.OutcomeExists {
		return ctx.JSON(http.StatusOK, StatusResponse{Status: string(outcome), Message: "Account already exists"})
	}
	return ctx.JSON(http.StatusCreated, StatusResponse{Status: string(outcome), Message: "Account created"})
}

func (api *studentApi) incrementHint(ctx echo.Context) error {
	var data PlayRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlayRequest")
	}

	res, err := api.svc.IncrementHint(ctx.Request().Context(), data.Email, data.Difficulty, data.Word)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{Matched: res.Matched, Modified: res.Modified})
}

func (api *studentApi) solveScramble(ctx echo.Context) error {
	var data PlayRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlayRequest")
	}

	res, err := api.svc.SolveScramble(ctx.Request().Context(), data.Email, data.Difficulty, data.Word)
	if err != nil {
		return err
	}
	if res.Modified == 0 {
		return ctx.JSON(http.StatusOK, UpdateResponse{Message: "Already solved or word not found", Matched: res.Matched})
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{
		Message:  "Word marked as solved and score incremented",
		Matched:  res.Matched,
		Modified: res.Modified,
	})
}

func (api *studentApi) solveSearch(ctx echo.Context) error {
	var data SearchScoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SearchScoreRequest")
	}

	res, err := api.svc.SolveSearch(ctx.Request().Context(), data.Email, data.Level, data.Word, data.Score)
	if err != nil {
		return err
	}
	if res.Modified == 0 {
		return ctx.JSON(http.StatusNotFound, UpdateResponse{Message: "No update made, the word may not exist", Matched: res.Matched})
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{
		Message:  "Score and word updated successfully",
		Matched:  res.Matched,
		Modified: res.Modified,
	})
}

func (api *studentApi) solveVocabulary(ctx echo.Context) error {
	var data PlayRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PlayRequest")
	}

	res, err := api.svc.SolveVocabulary(ctx.Request().Context(), data.Email, data.Difficulty, data.Word)
	if err != nil {
		return err
	}
	if res.Modified == 0 {
		return ctx.JSON(http.StatusBadRequest, UpdateResponse{Message: "Word not found or already solved", Matched: res.Matched})
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{Success: true, Matched: res.Matched, Modified: res.Modified})
}

func (api *studentApi) updateBadge(ctx echo.Context) error {
	var data BadgeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BadgeRequest")
	}

	res, err := api.svc.UpdateBadge(ctx.Request().Context(), data.Email, data.Level, data.Badge)
	if err != nil {
		return err
	}
	if res.Modified == 0 {
		return ctx.JSON(http.StatusBadRequest, UpdateResponse{Message: "User not found or badge not updated", Matched: res.Matched})
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{Success: true, Matched: res.Matched, Modified: res.Modified})
}

func (api *studentApi) updateDailyData(ctx echo.Context) error {
	var data DailyDataRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DailyDataRequest")
	}

	res, err := api.svc.UpdateDailyData(ctx.Request().Context(), student.DailyUpdate{
		Email:      data.Username,
		Data:       data.Data.DailyData,
		CurrentDay: data.CurrDayObj,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UpdateResponse{
		Message:  "Daily data updated successfully",
		Matched:  res.Matched,
		Modified: res.Modified,
	})
}

type (
	RosterParams struct {
		Class   string `json:"class" query:"class" validate:"required"`
		Section string `json:"section" query:"section" validate:"required"`
	}

	OverallProgressRequest struct {
		StudentEmail string `json:"studentEmail" validate:"required"`
	}

	StatusResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	// PlayRequest is shared by the scramble and vocabulary actions. Vocabulary clients send
	// the level name in `difficulty`.
	PlayRequest struct {
		Email      string `json:"email"`
		Difficulty string `json:"difficulty"`
		Word       string `json:"word"`
	}

	SearchScoreRequest struct {
		Email string `json:"email"`
		Level string `json:"level"`
		Word  string `json:"word"`
		Score *int   `json:"score"`
	}

	BadgeRequest struct {
		Email string `json:"email"`
		Level string `json:"level"`
		Badge string `json:"badge"`
	}

	DailyDataRequest struct {
		Username string `json:"username"`
		Data     struct {
			DailyData json.RawMessage `json:"dailyData"`
		} `json:"data"`
		CurrDayObj map[string]int `json:"currDayObj"`
	}

	UpdateResponse struct {
		Success  bool   `json:"success,omitempty"`
		Message  string `json:"message,omitempty"`
		Matched  int    `json:"matched"`
		Modified int    `json:"modified"`
	}
)

func (rp *RosterParams) Validate(validate *validator.Validate) error {
	rp.Class, rp.Section = core.CleanString(rp.Class), core.CleanString(rp.Section)
	return validate.Struct(rp)
}

func (or *OverallProgressRequest) Validate(validate *validator.Validate) error {
	or.StudentEmail = core.CleanString(or.StudentEmail)
	return validate.Struct(or)
}
