package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/pawpost/internal/model"
)

type mockFactService struct {
	listFn func(ctx context.Context) ([]model.DogFact, error)
}

func (m *mockFactService) List(ctx context.Context) ([]model.DogFact, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func TestFactHandler_ListFacts_Success(t *testing.T) {
	h := NewFactHandler(&mockFactService{
		listFn: func(ctx context.Context) ([]model.DogFact, error) {
			return []model.DogFact{{ID: 1, Fact: "Dogs can smell feelings."}}, nil
		},
	})

	w := httptest.NewRecorder()
	h.ListFacts(w, httptest.NewRequest(http.MethodGet, "/dog-facts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp factListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Facts) != 1 || resp.Facts[0].Fact != "Dogs can smell feelings." {
		t.Errorf("facts = %+v", resp.Facts)
	}
}

func TestFactHandler_ListFacts_Empty_Returns404(t *testing.T) {
	h := NewFactHandler(&mockFactService{
		listFn: func(ctx context.Context) ([]model.DogFact, error) {
			return nil, model.NewFactsNotFoundError()
		},
	})

	w := httptest.NewRecorder()
	h.ListFacts(w, httptest.NewRequest(http.MethodGet, "/dog-facts", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if resp := parseAPIErrorResponse(t, w); resp["error"] != "No dog facts found" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestFactHandler_ListFacts_StoreError_Returns500(t *testing.T) {
	h := NewFactHandler(&mockFactService{
		listFn: func(ctx context.Context) ([]model.DogFact, error) {
			return nil, errors.New("relation \"dog_facts\" does not exist")
		},
	})

	w := httptest.NewRecorder()
	h.ListFacts(w, httptest.NewRequest(http.MethodGet, "/dog-facts", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if resp := parseAPIErrorResponse(t, w); resp["error"] != "Failed to fetch dog facts" {
		t.Errorf("error = %q", resp["error"])
	}
}
