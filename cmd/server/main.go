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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/duitku/debt-engine/internal/config"
	"github.com/duitku/debt-engine/internal/handler"
	"github.com/duitku/debt-engine/internal/repository"
	"github.com/duitku/debt-engine/internal/service"
	"github.com/duitku/debt-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	debtRepo := repository.NewDebtRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	debtService := service.NewDebtService(debtRepo, paymentRepo, redisClient, cfg)
	debtHandler := handler.NewDebtHandler(debtService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(debtHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(debtHandler *handler.DebtHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.HouseholdGuard)

	api.HandleFunc("/debts", debtHandler.CreateDebt).Methods("POST")
	api.HandleFunc("/debts", debtHandler.ListDebts).Methods("GET")
	api.HandleFunc("/debts/summary", debtHandler.GetSummary).Methods("GET")
	api.HandleFunc("/debts/{debtId}", debtHandler.GetDebt).Methods("GET")
	api.HandleFunc("/debts/{debtId}", debtHandler.UpdateDebt).Methods("PUT")
	api.HandleFunc("/debts/{debtId}", debtHandler.DeleteDebt).Methods("DELETE")
	api.HandleFunc("/debts/{debtId}/schedule", debtHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/debts/{debtId}/payments", debtHandler.RecordPayment).Methods("POST")

	return router
}
