package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/utils"
)

type HealthHandler struct {
	db  Pinger
	log logging.Logger
	now func() time.Time
}

func NewHealthHandler(db Pinger, log logging.Logger, now func() time.Time) *HealthHandler {
	return &HealthHandler{db: db, log: log, now: now}
}

type healthResp struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Error(r.Context(), "health check failed", "error", err)
		utils.JSON(w, http.StatusInternalServerError, healthResp{Status: "ERROR", Database: "Disconnected"})
		return
	}

	utils.JSON(w, http.StatusOK, healthResp{
		Status:    "OK",
		Database:  "Connected",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
