package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusbite/backoffice/services/dashboard/internal/campus"
)

type handlerFixture struct {
	handler *Handler
	router  chi.Router
	mock    *MockCampus
	sink    *MockSink
}

func newHandlerFixture(t *testing.T, mock *MockCampus) *handlerFixture {
	t.Helper()
	sink := &MockSink{}
	audit := NewAuditLogger(nil, sink)
	svc := NewService(mock, audit, nil)
	h := NewHandler(nil, svc, NewHub(nil), audit, nil, nil)
	t.Cleanup(func() { _ = h.Stop(context.Background()) })

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &handlerFixture{handler: h, router: r, mock: mock, sink: sink}
}

// signIn stores a session and returns its cookie.
func (f *handlerFixture) signIn(t *testing.T, scope Scope) *http.Cookie {
	t.Helper()
	err := f.handler.sessions.Save(&Session{
		ID:                   scope.SessionID,
		ManagerID:            scope.ManagerID,
		ManagerName:          scope.ManagerName,
		SelectedUniversity:   scope.SelectedUniversity,
		SelectedUniversityID: scope.SelectedUniversityID,
		ExpiresAt:            time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: defaultSessionName, Value: scope.SessionID}
}

func (f *handlerFixture) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode %s: %v", w.Body.String(), err)
	}
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %s", w.Body.String())
	}
	return data
}

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		htmx         bool
		cookie       *http.Cookie
		wantStatus   int
		wantLocation string
		wantHXTarget string
	}{
		{name: "pageRedirects", path: "/orders", wantStatus: http.StatusSeeOther, wantLocation: "/signin"},
		{name: "htmxRedirectHeader", path: "/orders/table", htmx: true, wantStatus: http.StatusOK, wantHXTarget: "/signin"},
		{name: "apiUnauthorized", path: "/api/orders", wantStatus: http.StatusUnauthorized},
		{name: "unknownSession", path: "/orders", cookie: &http.Cookie{Name: defaultSessionName, Value: "nope"}, wantStatus: http.StatusSeeOther, wantLocation: "/signin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, &MockCampus{})
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}

			w := f.do(req, tt.cookie)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.wantLocation)
			}
			if tt.wantHXTarget != "" && w.Header().Get("HX-Redirect") != tt.wantHXTarget {
				t.Errorf("HX-Redirect = %q, want %q", w.Header().Get("HX-Redirect"), tt.wantHXTarget)
			}
		})
	}
}

func TestHomeRedirects(t *testing.T) {
	f := newHandlerFixture(t, &MockCampus{})

	scope := testScope()
	scope.SelectedUniversity = ""
	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil), f.signIn(t, scope))
	if loc := w.Header().Get("Location"); loc != "/select-university" {
		t.Errorf("Location = %q, want /select-university", loc)
	}

	other := testScope()
	other.SessionID = "session-2"
	w = f.do(httptest.NewRequest(http.MethodGet, "/", nil), f.signIn(t, other))
	if loc := w.Header().Get("Location"); loc != "/orders" {
		t.Errorf("Location = %q, want /orders", loc)
	}
}

func TestHandleSignIn(t *testing.T) {
	mock := &MockCampus{
		LoginFunc: func(_ context.Context, creds campus.Credentials) (*campus.Manager, error) {
			if creds.Email != "ada@campus.ng" || creds.Password != "secret" {
				t.Errorf("credentials = %+v", creds)
			}
			return &campus.Manager{ID: "m1", ManagerName: "Ada"}, nil
		},
	}
	f := newHandlerFixture(t, mock)

	form := url.Values{"email": {" ada@campus.ng "}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")

	w := f.do(req, nil)
	if got := w.Header().Get("HX-Redirect"); got != "/select-university" {
		t.Errorf("HX-Redirect = %q, want /select-university", got)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == defaultSessionName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}

	session, err := f.handler.sessions.Get(cookie.Value)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if session.ManagerID != "m1" || session.ManagerName != "Ada" || session.SelectedUniversity != "" {
		t.Errorf("session = %+v", session)
	}

	entries := f.sink.Entries()
	if len(entries) != 1 || entries[0].Action != ActionLogin {
		t.Errorf("audit = %+v", entries)
	}
}

func TestSignInService(t *testing.T) {
	tests := []struct {
		name     string
		form     SignInForm
		loginErr error
		want     string
	}{
		{name: "missingPassword", form: SignInForm{Email: "a@b.c"}, want: "Email and password are required"},
		{name: "serverMessage", form: SignInForm{Email: "a@b.c", Password: "x"}, loginErr: &campus.APIError{Status: 401, Message: "Invalid credentials"}, want: "Invalid credentials"},
		{name: "fallbackMessage", form: SignInForm{Email: "a@b.c", Password: "x"}, loginErr: campus.ErrMalformedPayload, want: "Login failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCampus{
				LoginFunc: func(context.Context, campus.Credentials) (*campus.Manager, error) { return nil, tt.loginErr },
			}
			svc := NewService(mock, nil, nil)
			_, err := svc.SignIn(context.Background(), tt.form)
			if got := MessageFor(err, ""); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignUpService(t *testing.T) {
	var sent campus.SignupRequest
	mock := &MockCampus{
		SignupFunc: func(_ context.Context, req campus.SignupRequest) (*campus.Manager, error) {
			sent = req
			return &campus.Manager{ID: "m2"}, nil
		},
	}
	svc := NewService(mock, nil, nil)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpForm{Email: "a@b.c", Password: "x"}); MessageFor(err, "") != "All fields are required" {
		t.Errorf("incomplete form error = %v", err)
	}

	m, err := svc.SignUp(ctx, SignUpForm{Email: "a@b.c", Password: "x", ManagerName: "Ada", University: "Unilag"})
	if err != nil || m.ID != "m2" {
		t.Fatalf("SignUp() = %+v, %v", m, err)
	}
	if sent.University != "Unilag" || sent.ManagerName != "Ada" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestHandleSelectUniversity(t *testing.T) {
	mock := &MockCampus{
		ListUniversitiesFunc: func(context.Context) ([]campus.University, error) {
			return []campus.University{{ID: "u1", Name: "Unilag"}, {ID: "u2", Name: "UI"}}, nil
		},
	}
	f := newHandlerFixture(t, mock)
	scope := testScope()
	scope.SelectedUniversity = ""
	scope.SelectedUniversityID = ""
	cookie := f.signIn(t, scope)

	form := url.Values{"universityId": {"u2"}}
	req := httptest.NewRequest(http.MethodPost, "/select-university", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")

	w := f.do(req, cookie)
	if got := w.Header().Get("HX-Redirect"); got != "/orders" {
		t.Errorf("HX-Redirect = %q, want /orders", got)
	}
	session, _ := f.handler.sessions.Get(scope.SessionID)
	if session.SelectedUniversity != "UI" || session.SelectedUniversityID != "u2" {
		t.Errorf("session = %+v", session)
	}

	req = httptest.NewRequest(http.MethodPost, "/change-university", nil)
	req.Header.Set("HX-Request", "true")
	w = f.do(req, cookie)
	if got := w.Header().Get("HX-Redirect"); got != "/select-university" {
		t.Errorf("HX-Redirect = %q, want /select-university", got)
	}
	session, _ = f.handler.sessions.Get(scope.SessionID)
	if session.SelectedUniversity != "" || session.ManagerID != "m1" {
		t.Errorf("session after change = %+v", session)
	}
}

func TestHandleSignOut(t *testing.T) {
	f := newHandlerFixture(t, &MockCampus{})
	cookie := f.signIn(t, testScope())

	req := httptest.NewRequest(http.MethodPost, "/signout", nil)
	req.Header.Set("HX-Request", "true")
	w := f.do(req, cookie)

	if got := w.Header().Get("HX-Redirect"); got != "/signin" {
		t.Errorf("HX-Redirect = %q, want /signin", got)
	}
	if _, err := f.handler.sessions.Get(cookie.Value); err == nil {
		t.Error("session still present after sign out")
	}
	entries := f.sink.Entries()
	if len(entries) != 1 || entries[0].Action != ActionLogout || entries[0].ManagerID != "m1" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestAPIOrders(t *testing.T) {
	mock := &MockCampus{
		GetManagerFunc: managerAt("Unilag"),
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, nil },
	}
	f := newHandlerFixture(t, mock)
	cookie := f.signIn(t, testScope())

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/orders?tab=pending", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	if data["tab"] != "pending" {
		t.Errorf("tab = %v", data["tab"])
	}
	orders, _ := data["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	row := orders[0].(map[string]interface{})
	if row["id"] != "o1" || row["badge"] != "Pending" || row["rider"] != "Not assigned" {
		t.Errorf("row = %v", row)
	}
	counters := data["counters"].(map[string]interface{})
	if counters["all"] != float64(2) {
		t.Errorf("counters = %v", counters)
	}
}

func TestAPIDecide(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		decideErr  error
		wantStatus int
		wantNotice string
	}{
		{name: "accepted", body: `{"accepted":true}`, wantStatus: http.StatusOK, wantNotice: "Order #o1 accepted"},
		{name: "declined", body: `{"accepted":false}`, wantStatus: http.StatusOK, wantNotice: "Order #o1 declined"},
		{name: "badBody", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "remoteFailure", body: `{"accepted":true}`, decideErr: &campus.APIError{Status: 500}, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCampus{
				DecidePackFunc: func(context.Context, string, string, bool) error { return tt.decideErr },
				ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return nil, nil },
			}
			f := newHandlerFixture(t, mock)
			cookie := f.signIn(t, testScope())

			req := httptest.NewRequest(http.MethodPut, "/api/orders/o1/vendor/v1/accept", strings.NewReader(tt.body))
			w := f.do(req, cookie)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantNotice != "" {
				if data := decodeData(t, w); data["notice"] != tt.wantNotice {
					t.Errorf("notice = %v, want %q", data["notice"], tt.wantNotice)
				}
			}
		})
	}
}

func TestAPISaveProduct(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "create", body: `{"vendorId":"v1","title":"Rice","price":"1500","category":"Protein","image":"i"}`, wantStatus: http.StatusCreated},
		{name: "update", body: `{"id":"p1","vendorId":"v1","title":"Rice","price":"1500","category":"Protein","image":"i"}`, wantStatus: http.StatusOK},
		{name: "invalid", body: `{"vendorId":"v1","title":"Rice","price":"abc","category":"Protein","image":"i"}`, wantStatus: http.StatusBadRequest},
		{name: "remoteRejects", body: `{"vendorId":"dup","title":"Rice","price":"1","category":"Drinks","image":"i"}`, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCampus{
				CreateProductFunc: func(_ context.Context, in campus.ProductInput) (*campus.Product, error) {
					if in.VendorID == "dup" {
						return nil, &campus.APIError{Status: http.StatusConflict, Message: "Product exists"}
					}
					return &campus.Product{ID: "p9", VendorID: in.VendorID, Title: in.Title}, nil
				},
				UpdateProductFunc: func(_ context.Context, id string, in campus.ProductInput) (*campus.Product, error) {
					return &campus.Product{ID: id, Title: in.Title}, nil
				},
			}
			f := newHandlerFixture(t, mock)
			cookie := f.signIn(t, testScope())

			w := f.do(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(tt.body)), cookie)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAPIApprovals(t *testing.T) {
	mock := approvalFixtures()
	mock.SetRiderApprovalFunc = func(context.Context, string, bool) error { return nil }
	f := newHandlerFixture(t, mock)
	cookie := f.signIn(t, testScope())

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/approvals", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := decodeData(t, w)
	if vendors := data["vendors"].([]interface{}); len(vendors) != 2 {
		t.Errorf("vendors = %d, want 2", len(vendors))
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/approvals/rider/r1", strings.NewReader(`{"valid":true}`))
	if w := f.do(req, cookie); w.Code != http.StatusOK {
		t.Errorf("PATCH status = %d, body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/approvals/admin/x", strings.NewReader(`{"valid":true}`))
	if w := f.do(req, cookie); w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", w.Code)
	}
}

func TestAPISidebar(t *testing.T) {
	mock := &MockCampus{
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
	}
	f := newHandlerFixture(t, mock)
	cookie := f.signIn(t, testScope())

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/sidebar", nil), cookie)
	data := decodeData(t, w)
	if data["manager_name"] != "Ada" || data["badge"] != float64(1) || data["total"] != float64(3) {
		t.Errorf("sidebar = %v", data)
	}
}

func TestAPIStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "missingManager", err: userErr("x", ErrMissingManager), want: http.StatusUnauthorized},
		{name: "inFlight", err: userErr("x", ErrDecisionInFlight), want: http.StatusConflict},
		{name: "remoteClientError", err: userErr("x", &campus.APIError{Status: 404}), want: http.StatusNotFound},
		{name: "remoteServerError", err: userErr("x", &campus.APIError{Status: 503}), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiStatus(tt.err); got != tt.want {
				t.Errorf("apiStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReloginReloadsManager(t *testing.T) {
	var (
		mu         sync.Mutex
		university = "Unilag"
	)
	mock := &MockCampus{
		LoginFunc: func(context.Context, campus.Credentials) (*campus.Manager, error) {
			return &campus.Manager{ID: "m1", ManagerName: "Ada"}, nil
		},
		GetManagerFunc: func(_ context.Context, id string) (*campus.Manager, error) {
			mu.Lock()
			defer mu.Unlock()
			return &campus.Manager{ID: id, ManagerName: "Ada", University: university}, nil
		},
		ListOrdersFunc: func(context.Context) ([]campus.Order, error) { return fixtureOrders(), nil },
		ListRidersFunc: func(context.Context) ([]campus.Rider, error) { return nil, nil },
	}
	f := newHandlerFixture(t, mock)

	signIn := func() *http.Cookie {
		form := url.Values{"email": {"ada@campus.ng"}, "password": {"secret"}}
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("HX-Request", "true")
		for _, c := range f.do(req, nil).Result().Cookies() {
			if c.Name == defaultSessionName {
				return c
			}
		}
		t.Fatal("session cookie not set")
		return nil
	}
	ordersTotal := func(cookie *http.Cookie) interface{} {
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/orders", nil), cookie)
		return decodeData(t, w)["counters"].(map[string]interface{})["all"]
	}

	cookie := signIn()
	if got := ordersTotal(cookie); got != float64(2) {
		t.Fatalf("orders before relogin = %v, want 2", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/signout", nil)
	req.Header.Set("HX-Request", "true")
	f.do(req, cookie)

	mu.Lock()
	university = "UI"
	mu.Unlock()

	cookie = signIn()
	if got := ordersTotal(cookie); got != float64(1) {
		t.Errorf("orders after relogin = %v, want 1 scoped to the new university", got)
	}
	if calls := mock.Calls("GetManager"); calls != 2 {
		t.Errorf("GetManager calls = %d, want 2", calls)
	}
}
