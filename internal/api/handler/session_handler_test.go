package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/examstack/examgate/internal/api/middleware"
	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
	"github.com/examstack/examgate/internal/infrastructure/credstore"
)

// scriptedAPI stands in for the backend client during handler tests.
type scriptedAPI struct {
	loginFn    func(username, password string) (string, *domain.User, error)
	registerFn func(in domain.RegisterInput) error
	logoutFn   func() error
	passwordFn func(oldPassword, newPassword string) error
}

func (s *scriptedAPI) Login(_ context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(username, password)
}

func (s *scriptedAPI) Register(_ context.Context, in domain.RegisterInput) error {
	return s.registerFn(in)
}

func (s *scriptedAPI) Logout(context.Context) error {
	if s.logoutFn != nil {
		return s.logoutFn()
	}
	return nil
}

func (s *scriptedAPI) FetchProfile(context.Context) (*domain.User, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedAPI) UpdateProfile(context.Context, domain.ProfileUpdate) (*domain.User, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedAPI) ChangePassword(_ context.Context, oldPassword, newPassword string) error {
	return s.passwordFn(oldPassword, newPassword)
}

func newSessionApp(store ports.CredentialStore, api ports.AuthAPI) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()

	builder := &middleware.SessionBuilder{
		Log:       zerolog.Nop(),
		NewStore:  func(string) ports.CredentialStore { return store },
		NewClient: func(ports.CredentialStore) ports.AuthAPI { return api },
	}
	h := NewSessionHandler()
	g := e.Group("/session", middleware.BrowserSession("test-secret"), builder.Middleware())
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.POST("/logout", h.Logout)
	g.GET("", h.Show)
	g.PUT("/password", h.ChangePassword)
	return e
}

func postJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_LoginSuccess(t *testing.T) {
	store := credstore.NewMemory()
	e := newSessionApp(store, &scriptedAPI{
		loginFn: func(username, password string) (string, *domain.User, error) {
			if username != "admin" || password != "admin123" {
				t.Fatalf("unexpected credentials %s/%s", username, password)
			}
			return "t1", &domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin}, nil
		},
	})

	rec := postJSON(e, http.MethodPost, "/session/login", `{"username":"admin","password":"admin123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	// The credential is persisted for the browser's next request.
	token, user, err := store.Load(context.Background())
	if err != nil || token != "t1" || user == nil {
		t.Fatalf("credential not persisted: %q %+v %v", token, user, err)
	}
}

func TestSessionHandler_LoginRejectedCredentials(t *testing.T) {
	e := newSessionApp(credstore.NewMemory(), &scriptedAPI{
		loginFn: func(string, string) (string, *domain.User, error) {
			return "", nil, &domain.APIError{Status: 401, Message: "invalid username or password"}
		},
	})

	rec := postJSON(e, http.MethodPost, "/session/login", `{"username":"admin","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "invalid username or password" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestSessionHandler_LoginValidatesPayload(t *testing.T) {
	e := newSessionApp(credstore.NewMemory(), &scriptedAPI{
		loginFn: func(string, string) (string, *domain.User, error) {
			t.Fatal("backend must not be called for an invalid payload")
			return "", nil, nil
		},
	})

	rec := postJSON(e, http.MethodPost, "/session/login", `{"username":"admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSessionHandler_RegisterCreated(t *testing.T) {
	var got domain.RegisterInput
	e := newSessionApp(credstore.NewMemory(), &scriptedAPI{
		registerFn: func(in domain.RegisterInput) error {
			got = in
			return nil
		},
	})

	payload := `{"username":"student9","email":"s9@test.com","password":"secret99","realName":"Stu Dent"}`
	rec := postJSON(e, http.MethodPost, "/session/register", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got.Email != "s9@test.com" {
		t.Fatalf("input not forwarded: %+v", got)
	}
}

func TestSessionHandler_RegisterRejectsBadEmail(t *testing.T) {
	e := newSessionApp(credstore.NewMemory(), &scriptedAPI{
		registerFn: func(domain.RegisterInput) error {
			t.Fatal("backend must not be called")
			return nil
		},
	})

	payload := `{"username":"student9","email":"not-an-email","password":"secret99","realName":"Stu Dent"}`
	rec := postJSON(e, http.MethodPost, "/session/register", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("expected an email validation message, got %s", rec.Body)
	}
}

func TestSessionHandler_LogoutAlwaysSucceeds(t *testing.T) {
	store := credstore.NewMemory()
	if err := store.Save(context.Background(), "t1", &domain.User{ID: 2, Username: "teacher1", Role: domain.RoleTeacher}); err != nil {
		t.Fatal(err)
	}
	e := newSessionApp(store, &scriptedAPI{
		logoutFn: func() error { return errors.New("backend unreachable") },
	})

	rec := postJSON(e, http.MethodPost, "/session/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if token, user, _ := store.Load(context.Background()); token != "" || user != nil {
		t.Fatalf("credential survived logout: %q %+v", token, user)
	}
}

func TestSessionHandler_ShowProjection(t *testing.T) {
	store := credstore.NewMemory()
	if err := store.Save(context.Background(), "t1", &domain.User{ID: 2, Username: "teacher1", Role: domain.RoleTeacher}); err != nil {
		t.Fatal(err)
	}
	e := newSessionApp(store, &scriptedAPI{})

	rec := postJSON(e, http.MethodGet, "/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		LoggedIn  bool `json:"loggedIn"`
		IsTeacher bool `json:"isTeacher"`
		IsAdmin   bool `json:"isAdmin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.LoggedIn || !body.IsTeacher || body.IsAdmin {
		t.Fatalf("unexpected projection: %+v", body)
	}
}

func TestSessionHandler_ChangePasswordTooShort(t *testing.T) {
	e := newSessionApp(credstore.NewMemory(), &scriptedAPI{
		passwordFn: func(string, string) error {
			t.Fatal("backend must not be called")
			return nil
		},
	})

	rec := postJSON(e, http.MethodPut, "/session/password", `{"oldPassword":"old123","newPassword":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
