package handlers

import (
	"net/http"

	"github.com/xelth-com/receivinggo/internal/services/hubspot"
)

// DealSearchRequest is the body of POST /api/hubspot/deals/search
type DealSearchRequest struct {
	PONumber string `json:"poNumber" validate:"required"`
}

// DealLineItemsRequest is the body of POST /api/hubspot/lineItems
type DealLineItemsRequest struct {
	DealID string `json:"dealId" validate:"required"`
}

// LineItemsUpdateRequest is the body of POST /api/hubspot/lineItems/batchUpdate
type LineItemsUpdateRequest struct {
	Updates []hubspot.ShippingDateUpdate `json:"updates" validate:"required,min=1,dive"`
}

// DealUpdateRequest is the body of POST /api/hubspot/updateDeal
type DealUpdateRequest struct {
	DealID   string `json:"dealId" validate:"required"`
	Property string `json:"property" validate:"required"`
	Value    string `json:"value"`
}

func (r *Router) crmReady(w http.ResponseWriter) bool {
	if r.deps.CRM == nil || !r.deps.CRM.Configured() {
		respondError(w, http.StatusServiceUnavailable, hubspot.ErrNotConfigured.Error())
		return false
	}
	return true
}

func (r *Router) searchDeals(w http.ResponseWriter, req *http.Request) {
	var body DealSearchRequest
	if !r.decode(w, req, &body) || !r.crmReady(w) {
		return
	}
	deals, err := r.deps.CRM.SearchByPO(req.Context(), body.PONumber)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "results": deals})
}

func (r *Router) dealLineItems(w http.ResponseWriter, req *http.Request) {
	var body DealLineItemsRequest
	if !r.decode(w, req, &body) || !r.crmReady(w) {
		return
	}
	items, err := r.deps.CRM.LineItems(req.Context(), body.DealID)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "lineItems": items})
}

func (r *Router) updateDealLineItems(w http.ResponseWriter, req *http.Request) {
	var body LineItemsUpdateRequest
	if !r.decode(w, req, &body) || !r.crmReady(w) {
		return
	}
	items, err := r.deps.CRM.UpdateShippingDates(req.Context(), body.Updates)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "results": items})
}

func (r *Router) updateDeal(w http.ResponseWriter, req *http.Request) {
	var body DealUpdateRequest
	if !r.decode(w, req, &body) || !r.crmReady(w) {
		return
	}
	deal, err := r.deps.CRM.UpdateDeal(req.Context(), body.DealID, body.Property, body.Value)
	if err != nil {
		respondFailure(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deal": deal})
}
