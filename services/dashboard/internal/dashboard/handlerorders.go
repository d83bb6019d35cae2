package dashboard

import (
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
)

func ordersRequest(r *http.Request) OrdersRequest {
	q := r.URL.Query()
	return OrdersRequest{
		Tab:     strings.TrimSpace(q.Get("tab")),
		Search:  q.Get("search"),
		Fresh:   q.Get("refresh") != "",
		Refresh: q.Get("refresh") != "",
	}
}

// ordersData builds the template data shared by the page and the table
// fragment.
func (h *Handler) ordersData(r *http.Request, req OrdersRequest) map[string]interface{} {
	scope := ScopeFrom(r.Context())
	data := h.page(r, "Orders", "orders")

	page, err := h.service.Orders(r.Context(), scope, req)
	if err != nil {
		h.log(r).Error("cannot load orders", "error", err)
		data["Error"] = MessageFor(err, "Failed to load orders")
	}

	now := h.now()
	data["Page"] = page
	data["Rows"] = orderRows(page.View.Orders, page.Riders, now)
	data["Tabs"] = tabViews(page.View.Counters, page.Tab)
	data["Tab"] = page.Tab
	data["Search"] = page.Search
	data["LoadedAt"] = page.LoadedAt
	return data
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Orders")
	defer finish()

	if !ScopeFrom(r.Context()).HasUniversity() {
		http.Redirect(w, r, "/select-university", http.StatusSeeOther)
		return
	}

	data := h.ordersData(r, ordersRequest(r))
	h.renderTemplate(w, r, "orders.html", "base.html", data)
}

// OrdersTable renders the tabs and rows only, used by search, tab switches
// and realtime reloads.
func (h *Handler) OrdersTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.OrdersTable")
	defer finish()

	data := h.ordersData(r, ordersRequest(r))
	h.renderTemplate(w, r, "orders.html", "orders_table", data)
}

func (h *Handler) OrderModal(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.OrderModal")
	defer finish()

	h.renderOrderModal(w, r, chi.URLParam(r, "id"), "", "")
}

func (h *Handler) renderOrderModal(w http.ResponseWriter, r *http.Request, orderID, notice, message string) {
	scope := ScopeFrom(r.Context())
	page, err := h.service.Orders(r.Context(), scope, OrdersRequest{Tab: "all"})
	if err != nil && message == "" {
		message = MessageFor(err, "Failed to load orders")
	}

	order, ok := findOrder(page.View.Orders, orderID)
	if !ok {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"Order":  h.service.orderDetail(order, page.Riders, h.now()),
		"Notice": notice,
		"Error":  message,
	}
	h.renderTemplate(w, r, "orders.html", "order_modal", data)
}

func (h *Handler) AcceptPack(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true, "Handler.AcceptPack")
}

func (h *Handler) DeclinePack(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false, "Handler.DeclinePack")
}

// decide submits the decision and re-renders the modal with the outcome
// notice or the inline error.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, accept bool, span string) {
	w, r, finish := h.http.Start(w, r, span)
	defer finish()

	scope := ScopeFrom(r.Context())
	orderID := chi.URLParam(r, "id")
	vendorID := chi.URLParam(r, "vendorID")

	outcome, err := h.service.Decide(r.Context(), scope, orderID, vendorID, accept)
	if err != nil {
		h.log(r).Debug("decision failed", "order_id", orderID, "vendor_id", vendorID, "error", err)
		if !aqm.IsHTMX(r) {
			http.Redirect(w, r, "/orders", http.StatusSeeOther)
			return
		}
		h.renderOrderModal(w, r, orderID, "", MessageFor(err, decisionFailedMsg))
		return
	}

	if !aqm.IsHTMX(r) {
		http.Redirect(w, r, "/orders", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Trigger", "orders-changed")
	h.renderOrderModal(w, r, orderID, outcome.Notice(), "")
}
