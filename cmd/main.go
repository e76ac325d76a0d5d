package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zepshift/zepshift-gobackend/internal/config"
	"github.com/zepshift/zepshift-gobackend/internal/handlers"
	"github.com/zepshift/zepshift-gobackend/internal/logger"
	"github.com/zepshift/zepshift-gobackend/internal/middleware"
	"github.com/zepshift/zepshift-gobackend/internal/services"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.Disconnect(disconnectCtx); err != nil {
			log.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Info("Successfully connected to MongoDB")

	// Initialize services and handlers
	verifier := middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	gateway := services.NewStripeService(cfg.StripeSecretKey, cfg.StripeBaseURL, cfg.ClientOrigin)

	userService := services.NewUserService(st)
	parcelService := services.NewParcelService(st)
	paymentService := services.NewPaymentService(st, gateway, log)
	riderService := services.NewRiderService(st, log)

	if err := userService.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}
	if err := paymentService.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create payment indexes: %v", err)
	}

	userHandler := handlers.NewUserHandler(userService, log)
	parcelHandler := handlers.NewParcelHandler(parcelService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	riderHandler := handlers.NewRiderHandler(riderService, log)

	// Set up router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Welcome to Zep-Shift!"))
	}).Methods("GET", "HEAD")

	router.HandleFunc("/users", userHandler.Register).Methods("POST")
	router.HandleFunc("/users", userHandler.List).Methods("GET")

	router.HandleFunc("/parcels", parcelHandler.Book).Methods("POST")
	router.HandleFunc("/parcels/{parcelID}", parcelHandler.Delete).Methods("DELETE")

	router.HandleFunc("/create-checkout-session", paymentHandler.CreateCheckoutSession).Methods("POST")
	router.HandleFunc("/payment-success", paymentHandler.PaymentSuccess).Methods("PATCH")

	router.HandleFunc("/riders", riderHandler.Apply).Methods("POST")
	router.HandleFunc("/riders", riderHandler.List).Methods("GET")

	// Routes that need a verified identity
	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(verifier))
	protected.HandleFunc("/parcels", parcelHandler.List).Methods("GET")
	protected.HandleFunc("/payments", paymentHandler.ListPayments).Methods("GET")
	protected.HandleFunc("/riders/{riderID}", riderHandler.SetStatus).Methods("PATCH")
	protected.HandleFunc("/riders/{riderID}", riderHandler.Delete).Methods("DELETE")

	// Start server
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown failed: %v", err)
	}
}
