package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/btlportal/internal/config"
	"github.com/rpattn/btlportal/internal/db"
	"github.com/rpattn/btlportal/internal/middleware"
	"github.com/rpattn/btlportal/internal/repository"
	"github.com/rpattn/btlportal/internal/upload"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	refRepo := repository.NewReferenceRepository(conn.Pool)
	execRepo := repository.NewExecutionRepository(conn)
	logRepo := repository.NewUploadLogRepository(conn.Pool)

	uploadService := upload.NewService(refRepo, execRepo, logRepo)
	uploadHandler := upload.NewHTTPHandler(uploadService, logRepo, cfg.Server.PublicDir, cfg.Server.UploadDir)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/upload", uploadHandler)
	mux.Handle("/upload/logs", uploadHandler)
	mux.Handle("/", http.FileServer(http.Dir(cfg.Server.PublicDir)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.LoggingMiddleware(corsHandler.Handler(mux)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting upload server on :%d", cfg.Server.Port)
		log.Printf("Upload endpoint available at http://localhost:%d/upload", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
