package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

// JSON view of the dashboard, for scripts and the test suite. It serves the
// same scoped and derived data as the pages.

type decideRequest struct {
	Accepted bool `json:"accepted"`
}

type approvalRequest struct {
	Valid bool `json:"valid"`
}

type productRequest struct {
	ID       string `json:"id"`
	VendorID string `json:"vendorId"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// apiStatus maps a service error to a response status. Remote 4xx
// statuses pass through; other remote failures are a bad gateway.
func apiStatus(err error) int {
	var (
		verrs  validator.ValidationErrors
		apiErr *campus.APIError
	)
	switch {
	case errors.Is(err, ErrMissingManager):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDecisionInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrMissingDecision), errors.As(err, &verrs), errors.Is(err, strconv.ErrSyntax):
		return http.StatusBadRequest
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func (h *Handler) APIOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APIOrders")
	defer finish()

	page, err := h.service.Orders(r.Context(), ScopeFrom(r.Context()), ordersRequest(r))
	if err != nil {
		h.log(r).Errorf("cannot load orders: %v", err)
		aqm.RespondError(w, apiStatus(err), MessageFor(err, "Failed to load orders"))
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"tab":      page.Tab,
		"search":   page.Search,
		"counters": page.View.Counters,
		"orders":   orderRows(page.View.Orders, page.Riders, h.now()),
		"count":    len(page.View.Orders),
	}, nil)
}

func (h *Handler) APIDecide(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APIDecide")
	defer finish()

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.Decide(r.Context(), ScopeFrom(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "vendorID"), req.Accepted)
	if err != nil {
		aqm.RespondError(w, apiStatus(err), MessageFor(err, decisionFailedMsg))
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"notice":  outcome.Notice(),
	}, nil)
}

func (h *Handler) APIProducts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APIProducts")
	defer finish()

	page, err := h.service.Products(r.Context(), ScopeFrom(r.Context()), productsRequest(r))
	if err != nil {
		h.log(r).Errorf("cannot load products: %v", err)
		aqm.RespondError(w, apiStatus(err), MessageFor(err, "Failed to load products"))
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"vendors":  page.Vendors,
		"products": page.Products,
		"count":    len(page.Products),
	}, nil)
}

func (h *Handler) APISaveProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APISaveProduct")
	defer finish()

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form := ProductForm(req)
	product, err := h.service.SaveProduct(r.Context(), ScopeFrom(r.Context()), form)
	if err != nil {
		aqm.RespondError(w, apiStatus(err), MessageFor(err, "Failed to save product"))
		return
	}

	status := http.StatusOK
	if !form.IsEdit() {
		status = http.StatusCreated
	}
	aqm.Respond(w, status, product, nil)
}

func (h *Handler) APIApprovals(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APIApprovals")
	defer finish()

	fresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	page, err := h.service.Approvals(r.Context(), ScopeFrom(r.Context()), fresh)
	if err != nil {
		aqm.RespondError(w, apiStatus(err), MessageFor(err, "Failed to fetch approvals list"))
		return
	}
	aqm.Respond(w, http.StatusOK, approvalRows(page), nil)
}

func (h *Handler) APISetApproval(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APISetApproval")
	defer finish()

	kind, err := ParseApprovalKind(chi.URLParam(r, "kind"))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Unknown approval kind")
		return
	}

	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	page, err := h.service.SetApproval(r.Context(), ScopeFrom(r.Context()), kind, chi.URLParam(r, "id"), req.Valid)
	if err != nil {
		aqm.RespondError(w, apiStatus(err), MessageFor(err, "Failed to update status"))
		return
	}
	aqm.Respond(w, http.StatusOK, approvalRows(page), nil)
}

func (h *Handler) APISidebar(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.APISidebar")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.service.Sidebar(r.Context(), ScopeFrom(r.Context())), nil)
}
