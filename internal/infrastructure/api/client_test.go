package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/examstack/examgate/internal/core/domain"
)

// stubStore is a minimal in-memory credential store with call counters.
type stubStore struct {
	mu         sync.Mutex
	token      string
	user       *domain.User
	clearCalls int
}

func (s *stubStore) Load(context.Context) (string, *domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.user.Clone(), nil
}

func (s *stubStore) Save(_ context.Context, token string, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user.Clone()
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	s.token = ""
	s.user = nil
	return nil
}

var fakeSigningKey = []byte("test-signing-key")

// fakeBackend serves the auth endpoints the way the exam platform does:
// bcrypt-checked passwords, HS256 bearer tokens, and enveloped responses.
type fakeBackend struct {
	passwordHash []byte
	user         domain.User
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeBackend{
		passwordHash: hash,
		user:         domain.User{ID: 1, Username: "admin", Email: "admin@test.com", Role: domain.RoleAdmin},
	}
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeEnvelope(w, http.StatusBadRequest, "malformed request", nil)
			return
		}
		if req.Username != b.user.Username ||
			bcrypt.CompareHashAndPassword(b.passwordHash, []byte(req.Password)) != nil {
			writeEnvelope(w, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  b.user.Username,
			"role": string(b.user.Role),
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString(fakeSigningKey)
		if err != nil {
			t.Errorf("mint token: %v", err)
			writeEnvelope(w, http.StatusInternalServerError, "token error", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{"token": token, "user": b.user})
	})

	mux.HandleFunc("GET /api/v1/user/profile", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", b.user)
	})

	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "ok", nil)
	})

	return mux
}

func (b *fakeBackend) authorized(r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return fakeSigningKey, nil
	})
	return err == nil && token.Valid
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func TestClient_LoginSuccess(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend(t).handler(t))
	defer srv.Close()

	store := &stubStore{}
	client := NewClient(srv.URL+"/api/v1", store, Options{})

	token, user, err := client.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user == nil || user.Username != "admin" || user.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestClient_LoginFailureSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend(t).handler(t))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1", &stubStore{}, Options{})

	_, _, err := client.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := domain.ErrorMessage(err, "fallback"); got != "invalid username or password" {
		t.Fatalf("expected server message, got %q", got)
	}
}

func TestClient_AuthorizedProfileFetch(t *testing.T) {
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	store := &stubStore{}
	client := NewClient(srv.URL+"/api/v1", store, Options{})

	token, user, err := client.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(context.Background(), token, user); err != nil {
		t.Fatal(err)
	}

	got, err := client.FetchProfile(context.Background())
	if err != nil {
		t.Fatalf("profile fetch with valid bearer: %v", err)
	}
	if got.Email != "admin@test.com" {
		t.Fatalf("unexpected profile %+v", got)
	}
}

func TestClient_UnauthorizedClearsStoreAndFiresHook(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend(t).handler(t))
	defer srv.Close()

	store := &stubStore{token: "stale-token", user: &domain.User{ID: 1, Username: "admin"}}
	client := NewClient(srv.URL+"/api/v1", store, Options{})

	hookFired := false
	client.SetUnauthorizedHook(func() { hookFired = true })

	_, err := client.FetchProfile(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if store.clearCalls == 0 || store.token != "" {
		t.Fatalf("rejected credential must be erased: %+v", store)
	}
	if !hookFired {
		t.Fatal("expected the invalidation hook to fire")
	}
}

func TestAuthTransport_HeaderInjection(t *testing.T) {
	var gotAuth, gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get(TenantHeader)
		writeEnvelope(w, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	store := &stubStore{token: "t1"}
	client := NewClient(srv.URL, store, Options{TenantID: "200"})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer t1" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer t1")
	}
	if gotTenant != "200" {
		t.Fatalf("%s = %q, want %q", TenantHeader, gotTenant, "200")
	}
}

func TestAuthTransport_NoBearerWithoutToken(t *testing.T) {
	var gotAuth, gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get(TenantHeader)
		writeEnvelope(w, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubStore{}, Options{})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization must be absent without a token, got %q", gotAuth)
	}
	if gotTenant != DefaultTenantID {
		t.Fatalf("%s = %q, want default %q", TenantHeader, gotTenant, DefaultTenantID)
	}
}

func TestClient_MalformedLoginResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Token without a user record.
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{"token": "t1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubStore{}, Options{})

	_, _, err := client.Login(context.Background(), "admin", "admin123")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestClient_UnwrapsBareResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Some endpoints return the payload without the envelope.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.User{ID: 7, Username: "bare", Role: domain.RoleStudent})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubStore{}, Options{})

	user, err := client.FetchProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != 7 || user.Username != "bare" {
		t.Fatalf("unexpected user %+v", user)
	}
}
