package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core/content"
	"github.com/speakmate/speakmate/core/ledger"
)

type contentApi struct {
	svc *content.Service
}

func registerContentAPI(e *echo.Echo, svc *content.Service) {
	api := contentApi{svc: svc}

	e.POST("/update-wordscramble-words", api.distribute(ledger.ModuleScramble))
	e.POST("/update-wordsearch", api.distribute(ledger.ModuleSearch))
	e.POST("/update-vocab", api.distribute(ledger.ModuleVocabulary))
}

// Handlers

func (api *contentApi) distribute(module ledger.Module) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data DistributeRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to DistributeRequest")
		}

		res, err := api.svc.Distribute(ctx.Request().Context(), content.Distribution{
			Module:  module,
			Class:   data.Classes,
			Section: data.Section,
			Items:   data.Words,
			Resume:  data.Resume,
		})
		if err != nil {
			return err
		}

		switch res.Outcome {
		case content.OutcomeNothingToDo:
			return ctx.JSON(http.StatusBadRequest, MessageResponse{Message: "No valid words to add"})
		case content.OutcomeNoMatch:
			return ctx.JSON(http.StatusNotFound, MessageResponse{Message: "no matching students"})
		}
		return ctx.JSON(http.StatusOK, DistributeResponse{
			Message:       fmt.Sprintf("Updated %d students successfully", res.Modified),
			ModifiedCount: res.Modified,
			MatchedCount:  res.Matched,
			Skipped:       res.Skipped,
		})
	}
}

type (
	DistributeRequest struct {
		Classes string         `json:"classes"`
		Section string         `json:"section"`
		Words   []content.Item `json:"words"`
		Resume  bool           `json:"resume"`
	}

	DistributeResponse struct {
		Message       string `json:"message"`
		ModifiedCount int    `json:"modifiedCount"`
		MatchedCount  int    `json:"matchedCount"`
		Skipped       int    `json:"skipped"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)
