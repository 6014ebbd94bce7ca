package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Jonathon-AR/resollectAssignment/internal/api"
	"github.com/Jonathon-AR/resollectAssignment/internal/config"
	"github.com/Jonathon-AR/resollectAssignment/internal/database"
	"github.com/Jonathon-AR/resollectAssignment/internal/metrics"
	"github.com/Jonathon-AR/resollectAssignment/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize record store
	log.Printf("Initializing %s task store", cfg.Store.Driver)
	store, err := database.NewTaskStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}

	taskService := services.NewTaskService(store)

	// Sweep metrics are optional
	var recorder *metrics.InfluxRecorder
	if cfg.InfluxDB.URL != "" {
		recorder, err = metrics.NewInfluxRecorder(cfg.InfluxDB, cfg.Store.Driver)
		if err != nil {
			log.Printf("WARNING: Failed to connect to InfluxDB (sweep metrics disabled): %v", err)
			recorder = nil
		}
	} else {
		log.Printf("InfluxDB not configured, sweep metrics disabled")
	}

	var sweeper *services.SweeperService
	if cfg.Sweeper.Enabled {
		var sweepRecorder services.SweepRecorder
		if recorder != nil {
			sweepRecorder = recorder
		}
		sweeper, err = services.NewSweeperService(taskService, cfg.Sweeper, sweepRecorder)
		if err != nil {
			log.Fatalf("Failed to create sweeper: %v", err)
		}
		sweeper.Start()

		if cfg.Sweeper.RunOnStart {
			go func() {
				if _, err := sweeper.RunOnce(context.Background()); err != nil {
					log.Printf("WARNING: Startup sweep did not complete: %v", err)
				}
			}()
		}
	} else {
		log.Printf("Sweeper disabled, overdue tasks will not be expired")
	}

	// Initialize handlers and routes
	handlers := api.NewHandlers(taskService)
	router := api.SetupRoutes(handlers, cfg.Server)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on %s (tasks mounted at %s)", addr, cfg.Server.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Stop accepting requests first, then the sweeper, then close the backends
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"task-server": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				var errs []error
				if err := server.Shutdown(ctx); err != nil {
					errs = append(errs, err)
				}
				if sweeper != nil {
					sweeper.Stop()
				}
				if recorder != nil {
					if err := recorder.Close(); err != nil {
						errs = append(errs, err)
					}
				}
				if err := store.Close(); err != nil {
					errs = append(errs, err)
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
