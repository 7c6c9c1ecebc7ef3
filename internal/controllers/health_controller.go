package controllers

import (
	"context"
	"net/http"

	"github.com/ronnyabuto/rent-service/internal/app"
	"github.com/ronnyabuto/rent-service/internal/config"
	"github.com/ronnyabuto/rent-service/internal/dtos"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{app}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	storage := "memory"
	if c.app.DB != nil {
		storage = "postgres"
		if err := c.app.DB.Ping(context.Background()); err != nil {
			utils.Logger.WithError(err).Error("rent-service DB unreachable")
			utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthResponse{
		Status:  "OK",
		App:     config.AppName,
		Storage: storage,
	})
}
