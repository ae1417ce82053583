package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/pawpost/internal/model"
	"golang.org/x/time/rate"
)

// Decision はレート制限の判定結果。
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter はキー単位のレート制限判定のインターフェース。
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimitRecorder はレート制限による拒否の記録先。
type RateLimitRecorder interface {
	RecordRateLimited()
}

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	Max             int           // ウィンドウあたりの最大リクエスト数
	Window          time.Duration // ウィンドウ長
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 15分あたり100リクエスト/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:             100,
		Window:          15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// fixedWindow はクライアントごとの現在のウィンドウの開始時刻とカウント。
type fixedWindow struct {
	start time.Time
	count int
}

// RateLimiter はプロセス内でクライアントごとの固定ウィンドウカウンタを管理する。
// ウィンドウは最初のリクエスト時刻から始まり、Window経過でリセットされる。単一プロセス構成で使う。
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*fixedWindow

	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = def.Max
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &RateLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*fixedWindow),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow はkeyのカウンタを1増やし、現在のウィンドウ内の上限を超えていないか判定する。
// 上限到達後はウィンドウがリセットされるまで拒否し続ける。
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, exists := rl.windows[key]
	if !exists || !now.Before(win.start.Add(rl.config.Window)) {
		win = &fixedWindow{start: now}
		rl.windows[key] = win
	}
	win.count++

	d := Decision{
		Allowed: win.count <= rl.config.Max,
		Limit:   rl.config.Max,
	}
	if remaining := rl.config.Max - win.count; remaining > 0 {
		d.Remaining = remaining
	}
	if !d.Allowed {
		d.RetryAfter = win.start.Add(rl.config.Window).Sub(now)
	}
	return d, nil
}

// LimiterCount は現在管理されているクライアントのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はウィンドウが終了したエントリを削除する。
// 終了済みのウィンドウは次のリクエストでリセットされるため、削除しても判定は変わらない。
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, win := range rl.windows {
		if !now.Before(win.start.Add(rl.config.Window)) {
			delete(rl.windows, key)
		}
	}
}

// NewRateLimitMiddleware はクライアントIP単位のレート制限ミドルウェアを返す。
// Limiterがエラーを返した場合はリクエストを通す（fail-open）。
// その際の警告ログは1分に1回までに抑える。
func NewRateLimitMiddleware(limiter Limiter, recorder RateLimitRecorder) func(next http.Handler) http.Handler {
	failOpenLog := &rate.Sometimes{First: 1, Interval: time.Minute}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			d, err := limiter.Allow(r.Context(), "rl:ip:"+ip)
			if err != nil {
				failOpenLog.Do(func() {
					slog.Warn("rate limiter unavailable, allowing requests",
						slog.String("client_ip", ip),
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("error", err.Error()),
					)
				})
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				if recorder != nil {
					recorder.RecordRateLimited()
				}
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeRateLimitResponse(w, d.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには秒単位に切り上げた待ち時間を設定する。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
}
