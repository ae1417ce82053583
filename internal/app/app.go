package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/pawpost/internal/auth"
	"github.com/hitoshi/pawpost/internal/config"
	"github.com/hitoshi/pawpost/internal/database"
	"github.com/hitoshi/pawpost/internal/fact"
	"github.com/hitoshi/pawpost/internal/handler"
	"github.com/hitoshi/pawpost/internal/logger"
	"github.com/hitoshi/pawpost/internal/metrics"
	"github.com/hitoshi/pawpost/internal/middleware"
	"github.com/hitoshi/pawpost/internal/post"
	"github.com/hitoshi/pawpost/internal/repository"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// defaultPort はSERVER_PORT未設定時の待ち受けポート。
const defaultPort = "3001"

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、JSON構造化ログをセットアップしてから環境変数のConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（既存の環境変数は上書きしない）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		var rest []string
		if len(args) > 1 {
			rest = args[1:]
		}
		return runMigrate(cfg, rest)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL(), database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. HTTPサーバーの構築
	server, cleanup, err := newServer(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. HTTPサーバーの起動
	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newServer は全依存関係をワイヤリングしたhttp.Serverを返す。
// 返されるcleanupはサーバー停止後に呼び出し、リミッターとRedis接続を解放する。
func newServer(cfg *config.Config, db *sql.DB) (*http.Server, func(), error) {
	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	factRepo := repository.NewPostgresFactRepo(db)

	// 3. ドメインサービスの初期化
	authService, err := auth.NewService(userRepo, auth.NewHasher(cfg.BcryptCost), collector)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	postService := post.NewService(postRepo, post.NewGuard(), collector)
	factService := fact.NewService(factRepo)

	// 4. レート制限
	limiter, cleanup := newLimiter(cfg)

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		AuthService:        authService,
		PostService:        postService,
		FactService:        factService,
		Logger:             slog.Default(),
		Limiter:            limiter,
		Recorder:           collector,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Gatherer:           reg,
		StaticDir:          cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, cleanup, nil
}

// newLimiter はREDIS_ADDRが設定されていればRedisの固定ウィンドウリミッターを、
// それ以外はプロセス内リミッターを返す。
// 起動時にRedisへ接続できない場合はプロセス内リミッターにフォールバックする。
func newLimiter(cfg *config.Config) (middleware.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			slog.Info("using redis rate limiter", slog.String("redis_addr", cfg.RedisAddr))
			return middleware.NewRedisRateLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow), func() {
				if err := client.Close(); err != nil {
					slog.Warn("failed to close redis client", slog.String("error", err.Error()))
				}
			}
		}

		slog.Warn("redis unavailable, falling back to in-process rate limiter",
			slog.String("redis_addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
		client.Close()
	}

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	})
	return rl, rl.Stop
}

// runMigrate はデータベースマイグレーションを実行する。
// argsはup（デフォルト）、down [steps]、versionのいずれか。
func runMigrate(cfg *config.Config, args []string) error {
	databaseURL := cfg.DatabaseURL()
	action, steps := ParseMigrateArgs(args)

	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(databaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigrations(databaseURL, steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migrations rolled back", slog.Int("steps", steps))
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(databaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("database migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	default:
		if err := database.RunMigrations(databaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully")
	}

	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/api/health", port))
}

func checkHealth(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
