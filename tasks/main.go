package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chepyr/task-manager/internal/config"
	"github.com/chepyr/task-manager/internal/db"
	"github.com/chepyr/task-manager/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dbConn, repo := initDB(cfg)
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	server := initServer(cfg, handlers.NewHandler(repo))
	startServer(server, cfg)
}

func initDB(cfg *config.Config) (*sql.DB, *db.TaskRepository) {
	dialect, err := db.DialectFor(cfg.DBDriver)
	if err != nil {
		log.Fatalf("Invalid database driver: %v", err)
	}

	dbConn, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := db.NewTaskRepository(dbConn, dialect)
	if err := repo.Init(context.Background()); err != nil {
		dbConn.Close()
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return dbConn, repo
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Address(),
		Handler: handler.Routes(),
	}
}

func startServer(server *http.Server, cfg *config.Config) {
	log.Printf("Starting tasks server on %s (driver=%s)", server.Addr, cfg.DBDriver)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
		return
	}
	log.Println("Server stopped")
}
