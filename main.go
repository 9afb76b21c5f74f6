package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vainnor/attendance-portal/api"
	"github.com/vainnor/attendance-portal/capture"
	"github.com/vainnor/attendance-portal/collector"
	"github.com/vainnor/attendance-portal/config"
	"github.com/vainnor/attendance-portal/db"
	"github.com/vainnor/attendance-portal/faculty"
	"github.com/vainnor/attendance-portal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	store, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx); err != nil {
			log.Fatalf("Failed to seed demo catalog: %v", err)
		}
	}

	slot := store.Slot()
	controller := faculty.NewController(slot, store, store, faculty.WithTolerance(cfg.ToleranceMeters))
	if err := controller.Restore(ctx); err != nil {
		log.Printf("Error restoring attendance session: %v", err)
	}
	restoreRoster(ctx, store, controller)

	c := collector.NewCollector(slot)
	go c.Run(ctx, cfg.PollInterval)
	go controller.Run(ctx)

	sweeper, err := scheduler.NewSweeper(slot, store).Start(cfg.SweepSchedule)
	if err != nil {
		log.Fatalf("Failed to start sweeper: %v", err)
	}

	var sink capture.Sink = capture.DiskSink{Dir: cfg.CaptureDir}
	if cfg.OSSEnabled() {
		ossSink, err := capture.NewOSSSink(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey, cfg.OSSBucket, cfg.OSSPrefix)
		if err != nil {
			log.Printf("Warning: OSS unavailable, archiving captures to %s: %v", cfg.CaptureDir, err)
		} else {
			sink = ossSink
		}
	}

	srv := api.NewServer(controller, c, store, api.Config{
		Archive:         capture.NewArchive(sink, cfg.CaptureQuality),
		ToleranceMeters: cfg.ToleranceMeters,
		MasterAPIKey:    cfg.MasterAPIKey,
		Location:        cfg.Location(),
	})
	router := api.NewRouter(srv, api.NewRateLimiter(cfg.RateLimit, store))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the API server in a goroutine
	go func() {
		log.Printf("Starting API server on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start API server: %v", err)
		}
	}()

	log.Printf("Polling attendance session slot (interval: %s)", cfg.PollInterval)
	<-ctx.Done()

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	<-sweeper.Stop().Done()
}

// restoreRoster re-marks students who checked in to a resumed session
// before the restart.
func restoreRoster(ctx context.Context, store *db.Store, controller *faculty.Controller) {
	s := controller.Session()
	if s == nil {
		return
	}
	records, err := store.RecordsForCourse(ctx, s.CourseCode)
	if err != nil {
		log.Printf("Error loading records for %s: %v", s.CourseCode, err)
		return
	}
	for _, rec := range records {
		if rec.SessionID != s.ID {
			continue
		}
		if err := controller.MarkPresent(rec.CourseCode, rec.RollNo); err != nil {
			log.Printf("Error restoring %s: %v", rec.RollNo, err)
		}
	}
}
