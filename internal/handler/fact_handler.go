package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/pawpost/internal/model"
)

// FactServiceInterface はdog factsハンドラーが必要とするサービスインターフェース。
type FactServiceInterface interface {
	List(ctx context.Context) ([]model.DogFact, error)
}

// FactHandler はdog factsのHTTPハンドラー。
type FactHandler struct {
	service FactServiceInterface
}

// NewFactHandler はFactHandlerを生成する。
func NewFactHandler(service FactServiceInterface) *FactHandler {
	return &FactHandler{service: service}
}

type factResponse struct {
	ID        int64     `json:"id"`
	Fact      string    `json:"fact"`
	CreatedAt time.Time `json:"created_at"`
}

type factListResponse struct {
	Facts []factResponse `json:"facts"`
}

// ListFacts は全件を返す。
// GET /dog-facts
func (h *FactHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, "list_dog_facts", "Failed to fetch dog facts", err)
		return
	}

	resp := factListResponse{Facts: make([]factResponse, 0, len(facts))}
	for _, f := range facts {
		resp.Facts = append(resp.Facts, factResponse{ID: f.ID, Fact: f.Fact, CreatedAt: f.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
