package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ronnyabuto/rent-service/internal/dtos"
	"github.com/ronnyabuto/rent-service/internal/services"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

type ScoresController struct {
	scoringService *services.ScoringService
}

func NewScoresController(s *services.ScoringService) *ScoresController {
	return &ScoresController{scoringService: s}
}

// GET /api/v1/tenants/{phone}/score
func (c *ScoresController) GetTenantScoreHandler(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	breakdown, err := c.scoringService.ScoreTenant(r.Context(), phone)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPhone):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Unparseable phone number", nil)
		case errors.Is(err, utils.ErrNoMatch):
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeTenantNotFound, "No tenant registered under this phone", nil)
		default:
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not compute score", nil, err)
		}
		return
	}

	normalized, _ := services.NormalizeMSISDN(phone)
	utils.RespondWithJSON(w, http.StatusOK, dtos.TenantScoreResponse{
		TenantPhone: normalized,
		Score:       *breakdown,
	})
}
