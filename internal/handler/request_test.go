package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/pawpost/internal/model"
)

func TestFlexibleID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    flexibleID
		wantErr bool
	}{
		{`1`, 1, false},
		{`"42"`, 42, false},
		{`" 7 "`, 7, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"abc"`, 0, true},
		{`1.5`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id flexibleID
			err := json.Unmarshal([]byte(tt.in), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("id = %d, want %d", id, tt.want)
			}
		})
	}
}

func TestDecodeRequest_BodyTooLarge(t *testing.T) {
	body := `{"email":"a@x.com","password":"` + strings.Repeat("a", maxRequestBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))

	var dst credentialsRequest
	apiErr := decodeRequest(httptest.NewRecorder(), req, &dst, credentialsRequiredMessage)
	if apiErr == nil || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("apiErr = %v, want validation error", apiErr)
	}
}

func TestDecodeRequest_TrailingData(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"単一オブジェクト", `{"email":"a@x.com","password":"pw"}`, false},
		{"末尾の空白は許可", "{\"email\":\"a@x.com\",\"password\":\"pw\"}\n  ", false},
		{"末尾のゴミ", `{"email":"a@x.com","password":"pw"}garbage`, true},
		{"2つ目のオブジェクト", `{"email":"a@x.com","password":"pw"}{"email":"b@x.com"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))

			var dst credentialsRequest
			apiErr := decodeRequest(httptest.NewRecorder(), req, &dst, credentialsRequiredMessage)
			if !tt.wantErr {
				if apiErr != nil {
					t.Fatalf("apiErr = %v, want nil", apiErr)
				}
				return
			}
			if apiErr == nil || apiErr.Message != "Invalid request body" {
				t.Fatalf("apiErr = %v, want Invalid request body", apiErr)
			}
		})
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewValidationError("x"), http.StatusBadRequest},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewAuthorNotFoundError(1), http.StatusNotFound},
		{model.NewPostNotFoundError(1), http.StatusNotFound},
		{model.NewFactsNotFoundError(), http.StatusNotFound},
		{model.NewRouteNotFoundError(), http.StatusNotFound},
		{model.NewForbiddenError(), http.StatusForbidden},
		{model.NewEmailAlreadyExistsError(), http.StatusConflict},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewRateLimitedError(), http.StatusTooManyRequests},
		{model.NewInternalError("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}
