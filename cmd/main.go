package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recibo-export/internal/clients"
	"recibo-export/internal/config"
	"recibo-export/internal/domain"
	"recibo-export/internal/layout"
	"recibo-export/internal/repository"
	"recibo-export/internal/service"
	"recibo-export/internal/transport/rest"
	"recibo-export/internal/transport/websocket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	var (
		sessions    service.SessionRepository
		memSessions *repository.MemorySessionRepository
		redisClient *clients.RedisClient
	)
	switch cfg.SessionDriver {
	case config.SessionDriverMemory:
		memSessions = repository.NewMemorySessionRepository(cfg.SessionTTL)
		sessions = memSessions
	default:
		redisClient = mustInitRedis(ctx, cfg.Redis)
		sessions = repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
	}

	var (
		store        service.ArtifactStore
		localStorage *clients.StorageClient
		files        rest.FileResolver
	)
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		store = mustInitS3(ctx, cfg.S3)
	default:
		s, err := clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
		if err != nil {
			log.Fatalf("storage init error: %v", err)
		}
		localStorage, store, files = s, s, s
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	renderer := layout.NewRenderer(mustLoadSignature(cfg.Receipt.SignaturePath))
	sessionSvc := service.NewSessionService(sessions, store, wsClient, renderer, domain.ReceiptDefaults{
		ReceivedBy: cfg.Receipt.ReceivedBy,
		Phone:      cfg.Receipt.Phone,
	})

	handler := rest.NewHandler(sessionSvc, files, wsHub)
	corsHandler := withCORS(handler.InitRouter())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run HTTP server in goroutine so we can listen for shutdown signals
	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	go runCleanup(ctx, cfg, localStorage, memSessions)

	// Listen for OS shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		// Give server up to 10 seconds to finish ongoing requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// Cancel top-level context so background services (websocket hub, cleaner) stop
		cancel()

		redisClient.Close()

		log.Println("Shutdown complete")
	}
}

// runCleanup drops stored receipts older than the configured age and expired in-memory
// sessions. Either may be nil.
func runCleanup(ctx context.Context, cfg config.AppConfig, storage *clients.StorageClient, sessions *repository.MemorySessionRepository) {
	if storage == nil && sessions == nil {
		return
	}
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if storage != nil {
				n, err := storage.CleanupOlderThan(cfg.FileMaxAge)
				if err != nil {
					log.Printf("[STORAGE] cleanup error: %v", err)
				} else if n > 0 {
					log.Printf("[STORAGE] removed %d old receipts", n)
				}
			}
			if sessions != nil {
				if n := sessions.Sweep(); n > 0 {
					log.Printf("[SESSION] swept %d expired sessions", n)
				}
			}
		}
	}
}

func mustInitRedis(ctx context.Context, cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(ctx, clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		PoolSize:    cfg.PoolSize,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func mustInitS3(ctx context.Context, cfg config.S3Config) *clients.S3Client {
	client, err := clients.NewS3Client(ctx, clients.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UseSSL:          cfg.UseSSL,
		Region:          cfg.Region,
		Prefix:          cfg.Prefix,
		URLExpiry:       cfg.URLExpiry,
	})
	if err != nil {
		log.Fatalf("s3 init error: %v", err)
	}
	return client
}

func mustLoadSignature(path string) []byte {
	if path == "" {
		log.Println("SIGNATURE_PATH not set, receipts are rendered without a signature")
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("signature load error: %v", err)
	}
	return data
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Requested-With")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
