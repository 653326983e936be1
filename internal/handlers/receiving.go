package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/receiving"
	"github.com/xelth-com/receivinggo/internal/report"
)

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
}

// RefreshRequest is the body of POST /api/cache/refresh
type RefreshRequest struct {
	PONumber string `json:"poNumber" validate:"required"`
}

func (r *Router) search(w http.ResponseWriter, req *http.Request) {
	var body SearchRequest
	if !r.decode(w, req, &body) {
		return
	}
	res, err := r.deps.Receiving.Search(req.Context(), body.Query)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*receiving.SearchResult
	}{true, res})
}

func (r *Router) updateLineItem(w http.ResponseWriter, req *http.Request) {
	var body receiving.UpdateLineItemRequest
	if !r.decode(w, req, &body) {
		return
	}
	if body.Updates.IsEmpty() {
		respondError(w, http.StatusBadRequest, "updates are required")
		return
	}
	res, err := r.deps.Receiving.UpdateLineItem(req.Context(), body)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		*receiving.UpdateResult
	}{true, fmt.Sprintf("Updated line item: PO=%s, SIDoc=%s, Index=%d", body.PONumber, body.SIDocNumber, body.LineItemIndex), res})
}

func (r *Router) updateLineItemsBulk(w http.ResponseWriter, req *http.Request) {
	var body receiving.BulkUpdateRequest
	if !r.decode(w, req, &body) {
		return
	}
	res, err := r.deps.Receiving.UpdateLineItemsBulk(req.Context(), body)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*receiving.UpdateResult
	}{true, res})
}

func (r *Router) poLineItems(w http.ResponseWriter, req *http.Request) {
	po := mux.Vars(req)["po"]
	rows, err := r.deps.Receiving.LineItems(req.Context(), po)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	if rows == nil {
		rows = []models.LineItemRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"poNumber":  po,
		"count":     len(rows),
		"lineItems": rows,
	})
}

func (r *Router) poCompletion(w http.ResponseWriter, req *http.Request) {
	res, err := r.deps.Receiving.Completion(req.Context(), mux.Vars(req)["po"])
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) exportXLSX(w http.ResponseWriter, req *http.Request) {
	po := mux.Vars(req)["po"]
	rows, err := r.deps.Receiving.LineItems(req.Context(), po)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	data, err := report.ExportXLSX(po, rows)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	sendFile(w, report.XLSXContentType, "PO-"+po+".xlsx", data)
}

func (r *Router) reportPDF(w http.ResponseWriter, req *http.Request) {
	completion, err := r.deps.Receiving.Completion(req.Context(), mux.Vars(req)["po"])
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	data, err := report.InspectionPDF(completion, r.deps.Config.PortalURL, time.Now())
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	sendFile(w, report.PDFContentType, "PO-"+completion.PONumber+".pdf", data)
}

func (r *Router) cachedInvoices(w http.ResponseWriter, req *http.Request) {
	rows, err := r.deps.Receiving.AllRecords(req.Context())
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	if rows == nil {
		rows = []models.LineItemRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(rows),
		"invoices": rows,
	})
}

func (r *Router) refreshCache(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if !r.decode(w, req, &body) {
		return
	}
	res, err := r.deps.Receiving.RefreshPO(req.Context(), body.PONumber)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*receiving.RefreshResult
	}{true, res})
}

func (r *Router) testEmail(w http.ResponseWriter, req *http.Request) {
	results := r.deps.Receiving.TestEmail(req.Context())
	if len(results) == 0 || !results[0].Delivered {
		reason := "delivery failed"
		if len(results) > 0 && results[0].Error != "" {
			reason = results[0].Error
		}
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   reason,
			"results": results,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test email sent successfully! Check inbox at " + strings.Join(results[0].Recipients, ", "),
		"results": results,
	})
}

func sendFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
