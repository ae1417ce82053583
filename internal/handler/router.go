package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/pawpost/internal/metrics"
	"github.com/hitoshi/pawpost/internal/middleware"
	"github.com/hitoshi/pawpost/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestRecorder はミドルウェアが使うメトリクス記録先。
type RequestRecorder interface {
	middleware.HTTPRecorder
	middleware.RateLimitRecorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// サービス
	AuthService AuthServiceInterface
	PostService PostServiceInterface
	FactService FactServiceInterface

	// ミドルウェア依存
	Logger             *slog.Logger
	Limiter            middleware.Limiter // nilの場合はレート制限しない
	Recorder           RequestRecorder
	CORSAllowedOrigins []string
	TrustProxyHeaders  bool

	// Gathererが設定されている場合のみ/metricsを公開する
	Gatherer prometheus.Gatherer

	// StaticDirが空の場合は静的配信を行わない
	StaticDir string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → (RealIP) → RequestID → Logging → Metrics → SecurityHeaders → CORS → RateLimit
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var recorder RequestRecorder = metrics.Nop{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	if deps.Limiter != nil {
		r.Use(middleware.NewRateLimitMiddleware(deps.Limiter, recorder))
	}

	var static http.Handler
	if deps.StaticDir != "" {
		static = NewStaticHandler(deps.StaticDir)
	}
	fallback := newFallbackHandler(static)
	r.NotFound(fallback)
	r.MethodNotAllowed(fallback)

	authHandler := NewAuthHandler(deps.AuthService)
	postHandler := NewPostHandler(deps.PostService)
	factHandler := NewFactHandler(deps.FactService)

	r.Get("/dog-facts", factHandler.ListFacts)
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	r.Get("/api/health", Health)
	r.Head("/api/health", Health)

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", postHandler.ListPosts)
		r.Post("/", postHandler.CreatePost)
		r.Get("/{id}", postHandler.GetPost)
		r.Put("/{id}", postHandler.UpdatePost)
		r.Delete("/{id}", postHandler.DeletePost)
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

// newFallbackHandler はどのルートにも一致しないリクエストを処理する。
// /api以外へのGET/HEADは静的配信に回し、それ以外はJSONの404を返す。
func newFallbackHandler(static http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if static != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) &&
			!strings.HasPrefix(r.URL.Path, "/api") {
			static.ServeHTTP(w, r)
			return
		}
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
	}
}
