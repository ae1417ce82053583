package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/pawpost/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, title, content string, authorID int64) (*model.PostWithAuthor, error)
	List(ctx context.Context) ([]model.PostWithAuthor, error)
	Get(ctx context.Context, id int64) (*model.PostWithAuthor, error)
	Update(ctx context.Context, id, actingUserID int64, title, content string) (*model.PostWithAuthor, error)
	Delete(ctx context.Context, id, actingUserID int64) error
}

// PostHandler は投稿CRUDのHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postRequest は投稿作成・更新リクエストのボディ。
type postRequest struct {
	Title   string     `json:"title" validate:"required"`
	Content string     `json:"content" validate:"required"`
	UserID  flexibleID `json:"userId" validate:"required"`
}

// deletePostRequest は投稿削除リクエストのボディ。
type deletePostRequest struct {
	UserID flexibleID `json:"userId" validate:"required"`
}

// postResponse は投稿のAPIレスポンス。emailは投稿者のメールアドレス。
type postResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type postListResponse struct {
	Posts []postResponse `json:"posts"`
}

type postEnvelope struct {
	Message string        `json:"message,omitempty"`
	Post    *postResponse `json:"post,omitempty"`
}

const postFieldsRequiredMessage = "Title, content and userId are required"

// ListPosts は全投稿を新しい順に返す。
// GET /api/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, "list_posts", "Failed to fetch posts", err)
		return
	}

	resp := postListResponse{Posts: make([]postResponse, 0, len(posts))}
	for i := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePost は投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if apiErr := decodeRequest(w, r, &req, postFieldsRequiredMessage); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	post, err := h.service.Create(r.Context(), req.Title, req.Content, int64(req.UserID))
	if err != nil {
		handleServiceError(w, r, "create_post", "Failed to create post", err)
		return
	}

	resp := toPostResponse(post)
	writeJSON(w, http.StatusCreated, postEnvelope{Message: "Post created", Post: &resp})
}

// GetPost は指定IDの投稿を返す。
// GET /api/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get_post", "Failed to fetch post", err)
		return
	}

	resp := toPostResponse(post)
	writeJSON(w, http.StatusOK, postEnvelope{Post: &resp})
}

// UpdatePost は投稿者本人による投稿の更新を処理する。
// PUT /api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req postRequest
	if apiErr := decodeRequest(w, r, &req, postFieldsRequiredMessage); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	post, err := h.service.Update(r.Context(), id, int64(req.UserID), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, r, "update_post", "Failed to update post", err)
		return
	}

	resp := toPostResponse(post)
	writeJSON(w, http.StatusOK, postEnvelope{Message: "Post updated", Post: &resp})
}

// DeletePost は投稿者本人による投稿の削除を処理する。
// DELETE /api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req deletePostRequest
	if apiErr := decodeRequest(w, r, &req, "userId is required"); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.Delete(r.Context(), id, int64(req.UserID)); err != nil {
		handleServiceError(w, r, "delete_post", "Failed to delete post", err)
		return
	}

	writeJSON(w, http.StatusOK, postEnvelope{Message: "Post deleted"})
}

func toPostResponse(p *model.PostWithAuthor) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.UserID,
		Email:     p.AuthorEmail,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
