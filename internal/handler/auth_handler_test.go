package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/pawpost/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, email, password string) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

// --- テストヘルパー ---

// parseAPIErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- Register ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			if email != "a@x.com" || password != "pw" {
				t.Errorf("Register(%q, %q)", email, password)
			}
			return &model.User{ID: 1, Email: email, PasswordHash: "$2a$10$secret"}, nil
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Register(w, newJSONRequest(http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if strings.Contains(w.Body.String(), "$2a$10$") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response leaks credential data: %s", w.Body.String())
	}

	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "User registered" {
		t.Errorf("message = %q, want %q", resp.Message, "User registered")
	}
	if resp.User.ID != 1 || resp.User.Email != "a@x.com" {
		t.Errorf("user = %+v", resp.User)
	}
}

func TestAuthHandler_Register_MissingFields_Returns400(t *testing.T) {
	bodies := []string{
		`{"email":"a@x.com"}`,
		`{"password":"pw"}`,
		`{"email":"","password":"pw"}`,
		`{}`,
		`null`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			called := false
			h := NewAuthHandler(&mockAuthService{
				registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
					called = true
					return nil, nil
				},
			})

			w := httptest.NewRecorder()
			h.Register(w, newJSONRequest(http.MethodPost, "/register", body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("service should not be called when fields are missing")
			}
			resp := parseAPIErrorResponse(t, w)
			if resp["error"] != "Email and password required" {
				t.Errorf("error = %q", resp["error"])
			}
			if resp["code"] != model.ErrCodeValidationFailed {
				t.Errorf("code = %q", resp["code"])
			}
		})
	}
}

func TestAuthHandler_Register_MalformedBody_Returns400(t *testing.T) {
	bodies := []string{
		`{"email":`,
		`[]`,
		`{"email":"a@x.com","password":"pw","admin":true}`,
		`{"email":1,"password":"pw"}`,
		``,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{})

			w := httptest.NewRecorder()
			h.Register(w, newJSONRequest(http.MethodPost, "/register", body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if resp := parseAPIErrorResponse(t, w); resp["error"] != "Invalid request body" {
				t.Errorf("error = %q", resp["error"])
			}
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail_Returns409(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, model.NewEmailAlreadyExistsError()
		},
	})

	w := httptest.NewRecorder()
	h.Register(w, newJSONRequest(http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`))

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if resp := parseAPIErrorResponse(t, w); resp["code"] != model.ErrCodeEmailAlreadyExists {
		t.Errorf("code = %q", resp["code"])
	}
}

func TestAuthHandler_Register_StoreError_Returns500(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, errors.New("pq: connection refused")
		},
	})

	w := httptest.NewRecorder()
	h.Register(w, newJSONRequest(http.MethodPost, "/register", `{"email":"a@x.com","password":"pw"}`))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["error"] != "Registration failed" {
		t.Errorf("error = %q, want %q", resp["error"], "Registration failed")
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Error("internal error details must not be exposed")
	}
}

// --- Login ---

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, PasswordHash: "$2a$10$secret"}, nil
		},
	})

	w := httptest.NewRecorder()
	h.Login(w, newJSONRequest(http.MethodPost, "/login", `{"email":"a@x.com","password":"pw"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Login successful" || resp.User.ID != 7 || resp.User.Email != "a@x.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"unknown user", model.NewUserNotFoundError(), http.StatusNotFound, "User not found"},
		{"wrong password", model.NewInvalidCredentialsError(), http.StatusUnauthorized, "Invalid credentials"},
		{"store failure", errors.New("timeout"), http.StatusInternalServerError, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
					return nil, tt.err
				},
			})

			w := httptest.NewRecorder()
			h.Login(w, newJSONRequest(http.MethodPost, "/login", `{"email":"a@x.com","password":"pw"}`))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if resp := parseAPIErrorResponse(t, w); resp["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", resp["error"], tt.wantError)
			}
		})
	}
}

func TestAuthHandler_Login_MissingPassword_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	w := httptest.NewRecorder()
	h.Login(w, newJSONRequest(http.MethodPost, "/login", `{"email":"a@x.com"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
