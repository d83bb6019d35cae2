package dashboard

import (
	"context"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

type SignInForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type SignUpForm struct {
	Email       string `validate:"required"`
	Password    string `validate:"required"`
	ManagerName string `validate:"required"`
	University  string `validate:"required"`
}

// SignIn authenticates a manager. Server messages are passed through.
func (s *Service) SignIn(ctx context.Context, form SignInForm) (*campus.Manager, error) {
	if err := validate.Struct(form); err != nil {
		return nil, userErr("Email and password are required", err)
	}

	manager, err := s.campus.Login(ctx, campus.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		s.audit.LogAction(ctx, "", ActionLogin, form.Email, nil, err)
		return nil, userErr(serverMessage(err, "Login failed. Please try again."), err)
	}

	s.ForgetManager(manager.ID)
	s.audit.LogLogin(ctx, manager.ID)
	return manager, nil
}

// SignUp registers a manager for a university.
func (s *Service) SignUp(ctx context.Context, form SignUpForm) (*campus.Manager, error) {
	if err := validate.Struct(form); err != nil {
		return nil, userErr("All fields are required", err)
	}

	manager, err := s.campus.Signup(ctx, campus.SignupRequest{
		Email:       form.Email,
		Password:    form.Password,
		ManagerName: form.ManagerName,
		University:  form.University,
	})
	s.audit.LogAction(ctx, managerIDOf(manager), ActionSignup, form.Email, map[string]interface{}{"university": form.University}, err)
	if err != nil {
		return nil, userErr(serverMessage(err, "Signup failed. Please try again."), err)
	}
	s.ForgetManager(managerIDOf(manager))
	return manager, nil
}

func managerIDOf(m *campus.Manager) string {
	if m == nil {
		return ""
	}
	return m.ID
}

func (h *Handler) ShowSignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.ShowSignIn")
	defer finish()

	h.renderSignIn(w, r, "", "")
}

func (h *Handler) renderSignIn(w http.ResponseWriter, r *http.Request, email, message string) {
	data := map[string]interface{}{
		"Title":    "Sign In - Campus Dashboard",
		"Template": "signin",
		"HideNav":  true,
		"Email":    email,
		"Error":    message,
	}
	h.renderTemplate(w, r, "signin.html", "base.html", data)
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.HandleSignIn")
	defer finish()

	if err := r.ParseForm(); err != nil {
		h.log(r).Debug("failed to parse form", "error", err)
		h.renderSignIn(w, r, "", "Failed to parse form. Please try again.")
		return
	}

	form := SignInForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	manager, err := h.service.SignIn(r.Context(), form)
	if err != nil {
		h.log(r).Debug("sign in failed", "error", err)
		h.renderSignIn(w, r, form.Email, MessageFor(err, "Login failed. Please try again."))
		return
	}

	if err := h.startSession(w, manager, form.Email); err != nil {
		h.log(r).Error("failed to save session", "error", err)
		h.renderSignIn(w, r, form.Email, "Session error. Please try again.")
		return
	}

	redirect(w, r, "/select-university")
}

func (h *Handler) ShowSignUp(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.ShowSignUp")
	defer finish()

	h.renderSignUp(w, r, SignUpForm{}, "")
}

func (h *Handler) renderSignUp(w http.ResponseWriter, r *http.Request, form SignUpForm, message string) {
	data := map[string]interface{}{
		"Title":    "Sign Up - Campus Dashboard",
		"Template": "signup",
		"HideNav":  true,
		"Form":     form,
		"Error":    message,
	}

	unis, err := h.service.Universities(r.Context())
	if err != nil {
		h.log(r).Error("cannot load universities", "error", err)
		if message == "" {
			data["Error"] = MessageFor(err, "Failed to load universities")
		}
	}
	data["Universities"] = unis

	h.renderTemplate(w, r, "signup.html", "base.html", data)
}

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.HandleSignUp")
	defer finish()

	if err := r.ParseForm(); err != nil {
		h.renderSignUp(w, r, SignUpForm{}, "Failed to parse form. Please try again.")
		return
	}

	form := SignUpForm{
		Email:       strings.TrimSpace(r.FormValue("email")),
		Password:    r.FormValue("password"),
		ManagerName: strings.TrimSpace(r.FormValue("managerName")),
		University:  r.FormValue("university"),
	}

	manager, err := h.service.SignUp(r.Context(), form)
	if err != nil {
		h.log(r).Debug("sign up failed", "error", err)
		form.Password = ""
		h.renderSignUp(w, r, form, MessageFor(err, "Signup failed. Please try again."))
		return
	}

	if err := h.startSession(w, manager, form.Email); err != nil {
		h.log(r).Error("failed to save session", "error", err)
		h.renderSignUp(w, r, form, "Session error. Please try again.")
		return
	}

	redirect(w, r, "/select-university")
}

func (h *Handler) startSession(w http.ResponseWriter, manager *campus.Manager, email string) error {
	now := h.now()
	session := &Session{
		ID:          uuid.New().String(),
		ManagerID:   manager.ID,
		ManagerName: manager.ManagerName,
		Email:       email,
		CreatedAt:   now,
		ExpiresAt:   now.Add(h.sessions.TTL()),
	}
	if err := h.sessions.Save(session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL().Seconds()),
	})
	return nil
}

// HandleSignOut drops the whole session, manager and university alike.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.HandleSignOut")
	defer finish()

	cookie, err := r.Cookie(h.sessionName)
	if err == nil && cookie.Value != "" {
		if session, err := h.sessions.Get(cookie.Value); err == nil {
			h.service.ForgetManager(session.ManagerID)
			h.audit.LogLogout(r.Context(), session.ManagerID)
		}
		h.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	redirect(w, r, "/signin")
}

func (h *Handler) ShowSelectUniversity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.ShowSelectUniversity")
	defer finish()

	h.renderSelectUniversity(w, r, "")
}

func (h *Handler) renderSelectUniversity(w http.ResponseWriter, r *http.Request, message string) {
	data := h.page(r, "Select University", "select_university")
	data["HideNav"] = true
	data["Error"] = message

	unis, err := h.service.Universities(r.Context())
	if err != nil {
		h.log(r).Error("cannot load universities", "error", err)
		if message == "" {
			data["Error"] = MessageFor(err, "Failed to load universities")
		}
	}
	data["Universities"] = unis

	h.renderTemplate(w, r, "select_university.html", "base.html", data)
}

// HandleSelectUniversity stores the chosen university name and id. The name
// is resolved from the id so the session only holds known universities.
func (h *Handler) HandleSelectUniversity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.HandleSelectUniversity")
	defer finish()

	scope := ScopeFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderSelectUniversity(w, r, "Failed to parse form. Please try again.")
		return
	}

	id := r.FormValue("universityId")
	if id == "" {
		h.renderSelectUniversity(w, r, "Please select a university")
		return
	}

	unis, err := h.service.Universities(r.Context())
	if err != nil {
		h.renderSelectUniversity(w, r, MessageFor(err, "Failed to load universities"))
		return
	}

	var chosen *campus.University
	for i := range unis {
		if unis[i].ID == id {
			chosen = &unis[i]
			break
		}
	}
	if chosen == nil {
		h.renderSelectUniversity(w, r, "Please select a university")
		return
	}

	if err := h.sessions.SelectUniversity(scope.SessionID, chosen.Name, chosen.ID); err != nil {
		h.log(r).Error("cannot store university", "error", err)
		redirect(w, r, "/signin")
		return
	}
	h.audit.LogAction(r.Context(), scope.ManagerID, ActionSelectUni, chosen.ID,
		map[string]interface{}{"name": chosen.Name}, nil)

	redirect(w, r, "/orders")
}

// HandleChangeUniversity clears the selection and keeps the manager signed in.
func (h *Handler) HandleChangeUniversity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.http.Start(w, r, "Handler.HandleChangeUniversity")
	defer finish()

	scope := ScopeFrom(r.Context())
	if err := h.sessions.ClearUniversity(scope.SessionID); err != nil {
		h.log(r).Debug("cannot clear university", "error", err)
	}
	redirect(w, r, "/select-university")
}

// SessionMiddleware resolves the session cookie into a Scope. Requests
// without a valid session are sent to sign in.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.sessionName)
		if err != nil {
			h.unauthenticated(w, r)
			return
		}

		session, err := h.sessions.Get(cookie.Value)
		if err != nil {
			h.unauthenticated(w, r)
			return
		}

		ctx := withScope(r.Context(), scopeFromSession(session))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		aqm.RespondError(w, http.StatusUnauthorized, "Manager not found. Please login again.")
		return
	}
	redirect(w, r, "/signin")
}
