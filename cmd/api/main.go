package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/cupid-agent/backend/internal/config"
	"github.com/zhouzirui/cupid-agent/backend/internal/handler"
	quotaModel "github.com/zhouzirui/cupid-agent/backend/internal/model/quota"
	"github.com/zhouzirui/cupid-agent/backend/internal/service/ai"
	quotaService "github.com/zhouzirui/cupid-agent/backend/internal/service/quota"
	transcriptService "github.com/zhouzirui/cupid-agent/backend/internal/service/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize transcript editor sessions
	transcripts := transcriptService.NewService()

	// Initialize usage quota store. 未配置数据库路径时退回内存存储。
	var quotaStore quotaModel.Store
	if cfg.Quota.DBPath != "" {
		sqliteStore, err := quotaModel.NewSQLiteStore(cfg.Quota.DBPath)
		if err != nil {
			log.Printf("warning: failed to open quota database: %v", err)
			log.Println("falling back to in-memory usage tracking")
			quotaStore = quotaModel.NewMemoryStore()
		} else {
			defer sqliteStore.Close()
			quotaStore = sqliteStore
			log.Printf("quota store opened at %s", cfg.Quota.DBPath)
		}
	} else {
		quotaStore = quotaModel.NewMemoryStore()
		log.Println("QUOTA_DB_PATH 未配置，用量计数仅保存在内存中")
	}

	tracker := quotaService.NewTracker(quotaStore, cfg.Quota.MaxDaily)
	tracker.Initialize(ctx)

	// Initialize analysis service. 缺少密钥时照常启动，请求时返回配置错误。
	analyzer := ai.NewService(cfg.AI)
	if cfg.AI.Enabled() {
		log.Println("analysis service initialized successfully")
	} else {
		log.Println("GEMINI_API_KEY 未配置，分析请求将返回配置错误")
	}

	router := handler.NewRouter(transcripts, analyzer, tracker)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Cupid Agent backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
