package dashboard

import (
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

func productsRequest(r *http.Request) ProductsRequest {
	q := r.URL.Query()
	return ProductsRequest{
		VendorFilter: q.Get("vendor"),
		Search:       q.Get("search"),
		Fresh:        q.Get("refresh") != "",
	}
}

func (h *Handler) productsData(r *http.Request, req ProductsRequest) (map[string]interface{}, ProductsPage) {
	data := h.page(r, "Products", "products")

	page, err := h.service.Products(r.Context(), ScopeFrom(r.Context()), req)
	if err != nil {
		h.log(r).Error("cannot load products", "error", err)
		data["Error"] = MessageFor(err, "Failed to load products")
	}
	data["Page"] = page
	data["Categories"] = campus.Categories
	return data, page
}

func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Products")
	defer finish()

	data, _ := h.productsData(r, productsRequest(r))
	layout := "base.html"
	if aqm.IsHTMX(r) {
		layout = "products_grid"
	}
	h.renderTemplate(w, r, "products.html", layout, data)
}

func (h *Handler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.NewProductForm")
	defer finish()

	h.renderProductForm(w, r, NewProductForm(), "")
}

func (h *Handler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.EditProductForm")
	defer finish()

	id := chi.URLParam(r, "id")
	_, page := h.productsData(r, ProductsRequest{})
	for _, p := range page.Products {
		if p.ID == id {
			h.renderProductForm(w, r, ProductFormFrom(p), "")
			return
		}
	}
	http.Error(w, "Product not found", http.StatusNotFound)
}

func (h *Handler) renderProductForm(w http.ResponseWriter, r *http.Request, form ProductForm, message string) {
	_, page := h.productsData(r, ProductsRequest{})
	data := map[string]interface{}{
		"Form":       form,
		"Vendors":    page.Vendors,
		"Categories": campus.Categories,
		"Error":      message,
	}
	h.renderTemplate(w, r, "products.html", "product_form", data)
}

// SaveProduct keeps the modal open with the inline message on failure. On
// success the grid is re-rendered from the updated local list.
func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.SaveProduct")
	defer finish()

	if err := r.ParseForm(); err != nil {
		h.renderProductForm(w, r, NewProductForm(), "Failed to parse form. Please try again.")
		return
	}
	form := productFormFromRequest(r)

	if _, err := h.service.SaveProduct(r.Context(), ScopeFrom(r.Context()), form); err != nil {
		h.log(r).Debug("cannot save product", "error", err)
		h.renderProductForm(w, r, form, MessageFor(err, "Failed to save product"))
		return
	}

	if !aqm.IsHTMX(r) {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Trigger", "product-saved")
	data, _ := h.productsData(r, ProductsRequest{})
	h.renderTemplate(w, r, "products.html", "products_grid", data)
}

func productFormFromRequest(r *http.Request) ProductForm {
	return ProductForm{
		ID:       strings.TrimSpace(r.FormValue("id")),
		VendorID: strings.TrimSpace(r.FormValue("vendorId")),
		Title:    strings.TrimSpace(r.FormValue("title")),
		Price:    strings.TrimSpace(r.FormValue("price")),
		Category: strings.TrimSpace(r.FormValue("category")),
		Image:    strings.TrimSpace(r.FormValue("image")),
	}
}
