package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/hitoshi/pawpost/internal/model"
)

// StaticHandler はビルド済みフロントエンドを配信する。
// 存在しないパスにはindex.htmlを返し、クライアントサイドルーティングに任せる。
type StaticHandler struct {
	dir string
}

// NewStaticHandler はdirを公開ルートとするStaticHandlerを生成する。
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if serveRegularFile(w, r, name) {
		return
	}
	if serveRegularFile(w, r, filepath.Join(h.dir, "index.html")) {
		return
	}
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
}

// serveRegularFile はnameが通常ファイルならそれを書き込みtrueを返す。
func serveRegularFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
