package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xelth-com/receivinggo/internal/models"
)

// BacklogRequest is the body of POST /api/backlog
type BacklogRequest struct {
	PONumber string `json:"poNumber" validate:"required"`
}

func (r *Router) listBacklog(w http.ResponseWriter, req *http.Request) {
	entries, err := r.deps.Backlog.List(req.Context())
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	if entries == nil {
		entries = []models.BacklogEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(entries),
		"backlog": entries,
	})
}

func (r *Router) addBacklog(w http.ResponseWriter, req *http.Request) {
	var body BacklogRequest
	if !r.decode(w, req, &body) {
		return
	}
	entry, err := r.deps.Backlog.Add(req.Context(), body.PONumber)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "entry": entry})
}

func (r *Router) removeBacklog(w http.ResponseWriter, req *http.Request) {
	po := mux.Vars(req)["po"]
	if err := r.deps.Backlog.Remove(req.Context(), po); err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "poNumber": po})
}

func (r *Router) runBacklog(w http.ResponseWriter, req *http.Request) {
	if r.deps.Sweeps == nil {
		respondError(w, http.StatusServiceUnavailable, "backlog checker disabled")
		return
	}
	res, err := r.deps.Sweeps.RunNow(req.Context())
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": res})
}

func (r *Router) backlogRuns(w http.ResponseWriter, req *http.Request) {
	if r.deps.SweepHistory == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "runs": []models.BacklogSweepRun{}})
		return
	}
	runs, err := r.deps.SweepHistory.Recent(req.Context(), queryLimit(req, 20))
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "runs": runs})
}

// queryLimit reads ?limit= clamped to 1..200
func queryLimit(req *http.Request, def int) int {
	n, err := strconv.Atoi(req.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > 200 {
		return 200
	}
	return n
}
