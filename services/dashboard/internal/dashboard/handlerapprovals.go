package dashboard

import (
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) Approvals(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Approvals")
	defer finish()

	page, err := h.service.Approvals(r.Context(), ScopeFrom(r.Context()), r.URL.Query().Get("refresh") != "")
	h.renderApprovals(w, r, page, err, "base.html")
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, true, "Handler.Approve")
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, false, "Handler.Reject")
}

func (h *Handler) setApproval(w http.ResponseWriter, r *http.Request, approve bool, span string) {
	w, r, finish := h.http.Start(w, r, span)
	defer finish()

	scope := ScopeFrom(r.Context())
	kind, err := ParseApprovalKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "Unknown approval kind", http.StatusBadRequest)
		return
	}

	page, err := h.service.SetApproval(r.Context(), scope, kind, chi.URLParam(r, "id"), approve)
	if !aqm.IsHTMX(r) {
		http.Redirect(w, r, "/approvals", http.StatusSeeOther)
		return
	}
	h.renderApprovals(w, r, page, err, "approvals_lists")
}

func (h *Handler) renderApprovals(w http.ResponseWriter, r *http.Request, page ApprovalsPage, err error, layout string) {
	data := h.page(r, "Approvals", "approvals")
	data["Page"] = approvalRows(page)
	if err != nil {
		h.log(r).Error("approvals error", "error", err)
		data["Error"] = MessageFor(err, "Failed to fetch approvals list")
	}
	h.renderTemplate(w, r, "approvals.html", layout, data)
}
