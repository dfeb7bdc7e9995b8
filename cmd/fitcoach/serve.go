package main

import (
	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/config"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository/mongo"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmdContext(cmd))
	},
}

func serve(ctx context.Context) error {
	log.Println("INFO: Starting fitcoach server...")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) must be set")
	}

	repos, err := openRepositories(cfg.Database)
	if err != nil {
		return err
	}
	defer repos.close()

	if cfg.Database.Driver == config.DriverMongo {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			ensureIndexes(ctx, cfg)
		}()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	services, err := repos.services(ctx, cfg, m)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, cfg.JWT.Secret, services, m, cfg.Metrics.Path)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("INFO: Server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Println("INFO: Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
		return err
	}

	log.Println("INFO: Server exiting.")
	return nil
}

// ensureIndexes opens its own connection so it can run alongside the server
// or from the ensure-indexes command.
func ensureIndexes(ctx context.Context, cfg config.Config) {
	client, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Printf("ERROR: Could not connect to MongoDB for index creation: %v", err)
		return
	}
	defer func() {
		if err := mongo.DisconnectDB(client); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()

	log.Println("INFO: Ensuring database indexes...")
	mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name))
	log.Println("INFO: Index creation process completed.")
}
