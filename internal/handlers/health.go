package handlers

import (
	"net/http"

	"github.com/gluk-w/claworc/artifacts/internal/database"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disabled"
	if database.DB != nil {
		dbStatus = "disconnected"
		if sqlDB, err := database.DB.DB(); err == nil && sqlDB.Ping() == nil {
			dbStatus = "connected"
		}
	}

	repo := "unconfigured"
	if Repo != nil {
		repo = Repo.String()
	}

	status := "healthy"
	if Repo == nil || dbStatus == "disconnected" {
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     status,
		"repository": repo,
		"database":   dbStatus,
	})
}
