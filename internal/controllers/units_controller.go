package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ronnyabuto/rent-service/internal/dtos"
	"github.com/ronnyabuto/rent-service/internal/services"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

type UnitsController struct {
	unitService *services.UnitService
}

func NewUnitsController(s *services.UnitService) *UnitsController {
	return &UnitsController{unitService: s}
}

var unitsValidate = validator.New()

// GET /api/v1/units
func (c *UnitsController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	units, err := c.unitService.ListUnits(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list units", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/v1/units/{id}/payments
func (c *UnitsController) ListUnitPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	events, err := c.unitService.ListUnitPayments(r.Context(), unitID)
	if err != nil {
		if errors.Is(err, utils.ErrUnitNotFound) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unit not found", nil)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list unit payments", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, events)
}

// POST /api/v1/units/{id}/occupant
func (c *UnitsController) AssignOccupantHandler(w http.ResponseWriter, r *http.Request) {
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	var req dtos.AssignOccupantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err)
		return
	}
	if err := unitsValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing or malformed occupant fields", nil, err)
		return
	}

	movedInAt, _ := time.Parse("2006-01-02", req.MovedInAt)
	leaseStart, _ := time.Parse("2006-01-02", req.LeaseStartDate)
	leaseEnd, _ := time.Parse("2006-01-02", req.LeaseEndDate)

	unit, err := c.unitService.AssignOccupant(r.Context(), unitID, req.Name, req.Phone, movedInAt, leaseStart, leaseEnd, req.DepositCents)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPhone):
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Unparseable phone number", nil)
		case errors.Is(err, utils.ErrPhoneAlreadyAssigned):
			utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodePhoneAlreadyAssigned, "Phone already registered to another unit", nil)
		case errors.Is(err, utils.ErrUnitNotFound):
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unit not found", nil)
		default:
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not assign occupant", nil, err)
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

// DELETE /api/v1/units/{id}/occupant
func (c *UnitsController) ClearOccupantHandler(w http.ResponseWriter, r *http.Request) {
	unitID, ok := parseUnitID(w, r)
	if !ok {
		return
	}

	unit, err := c.unitService.ClearOccupant(r.Context(), unitID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrUnitVacant):
			utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeUnitVacant, "Unit is already vacant", nil)
		case errors.Is(err, utils.ErrUnitNotFound):
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Unit not found", nil)
		default:
			utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not clear occupant", nil, err)
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

func parseUnitID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid unit id", nil, err)
		return uuid.Nil, false
	}
	return id, true
}
