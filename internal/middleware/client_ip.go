package middleware

import (
	"net"
	"net/http"
)

// ClientIP はレート制限キーに使うクライアントIPを返す。
// プロキシヘッダーの解釈はchiのRealIPミドルウェアに任せ、ここではRemoteAddrのみを見る。
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
