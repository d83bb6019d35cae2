package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	aqmtemplate "github.com/aquamarinepk/aqm/template"
	"github.com/go-chi/chi/v5"
)

const (
	defaultSessionName = "campus_session"
	defaultSessionTTL  = 8 * time.Hour
)

type Handler struct {
	tmplMgr     *aqmtemplate.Manager
	service     *Service
	sessions    *SessionStore
	audit       *AuditLogger
	hub         *Hub
	logger      aqm.Logger
	config      *aqm.Config
	http        *telemetry.HTTP
	sessionName string
	now         func() time.Time
}

func NewHandler(
	tmplMgr *aqmtemplate.Manager,
	service *Service,
	hub *Hub,
	audit *AuditLogger,
	config *aqm.Config,
	logger aqm.Logger,
) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if config == nil {
		config = aqm.NewConfig()
	}
	if audit == nil {
		audit = NewAuditLogger(logger, nil)
	}

	sessionName := config.GetStringOrDef("auth.session.name", defaultSessionName)

	sessionTTLStr, _ := config.GetString("auth.session.ttl")
	sessionTTL, _ := time.ParseDuration(sessionTTLStr)
	if sessionTTL == 0 {
		sessionTTL = defaultSessionTTL
	}

	return &Handler{
		tmplMgr:     tmplMgr,
		service:     service,
		sessions:    NewSessionStore(sessionTTL),
		audit:       audit,
		hub:         hub,
		logger:      logger,
		config:      config,
		http:        telemetry.NewHTTP(),
		sessionName: sessionName,
		now:         time.Now,
	}
}

// RegisterRoutes registers pages, fragments, the JSON view API and the
// event stream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/signin", h.ShowSignIn)
	r.Post("/signin", h.HandleSignIn)
	r.Get("/signup", h.ShowSignUp)
	r.Post("/signup", h.HandleSignUp)
	r.Post("/signout", h.HandleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/", h.Home)
		r.Get("/select-university", h.ShowSelectUniversity)
		r.Post("/select-university", h.HandleSelectUniversity)
		r.Post("/change-university", h.HandleChangeUniversity)
		r.Get("/sidebar", h.SidebarFragment)

		r.Get("/orders", h.Orders)
		r.Get("/orders/table", h.OrdersTable)
		r.Get("/orders/{id}/modal", h.OrderModal)
		r.Post("/orders/{id}/vendor/{vendorID}/accept", h.AcceptPack)
		r.Post("/orders/{id}/vendor/{vendorID}/decline", h.DeclinePack)

		r.Get("/products", h.Products)
		r.Get("/products/new", h.NewProductForm)
		r.Get("/products/{id}/edit", h.EditProductForm)
		r.Post("/products", h.SaveProduct)

		r.Get("/approvals", h.Approvals)
		r.Post("/approvals/{kind}/{id}/approve", h.Approve)
		r.Post("/approvals/{kind}/{id}/reject", h.Reject)

		r.Route("/api", func(r chi.Router) {
			r.Get("/orders", h.APIOrders)
			r.Put("/orders/{id}/vendor/{vendorID}/accept", h.APIDecide)
			r.Get("/products", h.APIProducts)
			r.Post("/products", h.APISaveProduct)
			r.Get("/approvals", h.APIApprovals)
			r.Patch("/approvals/{kind}/{id}", h.APISetApproval)
			r.Get("/sidebar", h.APISidebar)
		})

		if h.hub != nil {
			r.Get("/events", h.hub.ServeHTTP)
		}
	})
}

func (h *Handler) Start(ctx context.Context) error {
	return nil
}

// Stop releases the session sweeper.
func (h *Handler) Stop(ctx context.Context) error {
	h.sessions.Close()
	return nil
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, templateName, layout string, data map[string]interface{}) {
	if h.tmplMgr == nil {
		h.log(r).Error("template manager not configured", "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	tmpl, err := h.tmplMgr.Get(templateName)
	if err != nil {
		h.log(r).Error("error loading template", "error", err, "template", templateName)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, layout, data); err != nil {
		h.log(r).Error("error rendering template", "error", err, "layout", layout)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// page adds the layout values shared by every authenticated page.
func (h *Handler) page(r *http.Request, title, template string) map[string]interface{} {
	scope := ScopeFrom(r.Context())
	return map[string]interface{}{
		"Title":    title + " - Campus Dashboard",
		"Template": template,
		"Scope":    scope,
		"Sidebar":  h.service.Sidebar(r.Context(), scope),
		"Active":   template,
	}
}

// Home sends the manager to the orders page, or to the university picker
// when none is selected yet.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.Home")
	defer finish()

	if !ScopeFrom(r.Context()).HasUniversity() {
		http.Redirect(w, r, "/select-university", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

func (h *Handler) SidebarFragment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.SidebarFragment")
	defer finish()

	data := h.page(r, "Sidebar", "sidebar")
	h.renderTemplate(w, r, "sidebar.html", "sidebar", data)
}

// redirect sends htmx requests to url via HX-Redirect and everything else
// via a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if aqm.IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
