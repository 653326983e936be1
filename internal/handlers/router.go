package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/backlog"
	"github.com/xelth-com/receivinggo/internal/buildinfo"
	"github.com/xelth-com/receivinggo/internal/config"
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/middleware"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/notify"
	"github.com/xelth-com/receivinggo/internal/receiving"
	"github.com/xelth-com/receivinggo/internal/services/hubspot"
	"github.com/xelth-com/receivinggo/internal/services/sportsinc"
	"github.com/xelth-com/receivinggo/internal/utils"
	"github.com/xelth-com/receivinggo/internal/websocket"
)

// CRM is the subset of the HubSpot client the API exposes
type CRM interface {
	Configured() bool
	SearchByPO(ctx context.Context, po string) ([]models.Deal, error)
	LineItems(ctx context.Context, dealID string) ([]models.DealLineItem, error)
	UpdateShippingDates(ctx context.Context, updates []hubspot.ShippingDateUpdate) ([]models.DealLineItem, error)
	UpdateDeal(ctx context.Context, dealID, property, value string) (models.Deal, error)
}

// SweepRunner runs a backlog sweep on demand
type SweepRunner interface {
	RunNow(ctx context.Context) (backlog.SweepResult, error)
}

// Deps are the collaborators the API serves. Optional ones may be nil.
type Deps struct {
	Config        *config.Config
	Receiving     *receiving.Service
	Backlog       *backlog.Store
	Sweeps        SweepRunner
	SweepHistory  backlog.History
	CRM           CRM
	Notifications notify.LogStore
	Hub           *websocket.Hub
	Static        fs.FS
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	deps     Deps
	validate *validator.Validate
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		deps:     deps,
		validate: validator.New(),
	}
	requireAuth := middleware.AuthMiddleware(deps.Config.JWTSecret)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	r.HandleFunc("/auth/login", r.login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()

	// Receiving workflows
	api.HandleFunc("/search", r.search).Methods("POST")
	api.HandleFunc("/updateLineItem", r.updateLineItem).Methods("POST")
	api.HandleFunc("/updateLineItemsBulk", r.updateLineItemsBulk).Methods("POST")
	api.HandleFunc("/po/{po}/lineItems", r.poLineItems).Methods("GET")
	api.HandleFunc("/po/{po}/completion", r.poCompletion).Methods("GET")
	api.HandleFunc("/po/{po}/export.xlsx", r.exportXLSX).Methods("GET")
	api.HandleFunc("/po/{po}/report.pdf", r.reportPDF).Methods("GET")

	// Ledger cache
	api.HandleFunc("/cache/invoices", r.cachedInvoices).Methods("GET")
	api.HandleFunc("/cache/refresh", r.refreshCache).Methods("POST")

	// Backlog (mutations protected)
	api.HandleFunc("/backlog", r.listBacklog).Methods("GET")
	api.Handle("/backlog", requireAuth(http.HandlerFunc(r.addBacklog))).Methods("POST")
	api.Handle("/backlog/run", requireAuth(http.HandlerFunc(r.runBacklog))).Methods("POST")
	api.HandleFunc("/backlog/runs", r.backlogRuns).Methods("GET")
	api.Handle("/backlog/{po}", requireAuth(http.HandlerFunc(r.removeBacklog))).Methods("DELETE")

	// CRM
	api.HandleFunc("/hubspot/deals/search", r.searchDeals).Methods("POST")
	api.HandleFunc("/hubspot/lineItems", r.dealLineItems).Methods("POST")
	api.HandleFunc("/hubspot/lineItems/batchUpdate", r.updateDealLineItems).Methods("POST")
	api.HandleFunc("/hubspot/updateDeal", r.updateDeal).Methods("POST")

	// Notifications
	api.HandleFunc("/notifications", r.recentNotifications).Methods("GET")
	api.Handle("/testEmail", requireAuth(http.HandlerFunc(r.testEmail))).Methods("GET")

	if deps.Hub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWs(deps.Hub, w, req)
		})
	}

	if deps.Static != nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(deps.Static)))
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"version":   buildinfo.String(),
		"startedAt": buildinfo.StartTime,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// decode reads a JSON body into dst and validates it. It writes the 400 response itself.
func (r *Router) decode(w http.ResponseWriter, req *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := r.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, receiving.ErrQueryRequired):
		return http.StatusBadRequest
	case errors.Is(err, receiving.ErrLineItemNotFound),
		errors.Is(err, receiving.ErrNotFoundUpstream),
		errors.Is(err, backlog.ErrNotInBacklog):
		return http.StatusNotFound
	case errors.Is(err, backlog.ErrAlreadyInBacklog),
		errors.Is(err, backlog.ErrSweepInProgress):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrLedgerUnavailable),
		errors.Is(err, sportsinc.ErrTransport),
		errors.Is(err, sportsinc.ErrAuthFailure):
		return http.StatusBadGateway
	case errors.Is(err, hubspot.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondFailure logs err and sends it with the mapped status
func respondFailure(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithField("path", req.URL.Path).Errorf("❌ %v", err)
	}
	respondError(w, status, err.Error())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
