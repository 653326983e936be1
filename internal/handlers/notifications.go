package handlers

import (
	"net/http"

	"github.com/xelth-com/receivinggo/internal/models"
)

func (r *Router) recentNotifications(w http.ResponseWriter, req *http.Request) {
	if r.deps.Notifications == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "notifications": []models.NotificationLog{}})
		return
	}
	entries, err := r.deps.Notifications.Recent(req.Context(), req.URL.Query().Get("po"), queryLimit(req, 50))
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "notifications": entries})
}
