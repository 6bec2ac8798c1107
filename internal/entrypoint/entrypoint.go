package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/devicecatalog/internal/audit"
	"github.com/mrlokans/devicecatalog/internal/config"
	"github.com/mrlokans/devicecatalog/internal/database"
	auditRepo "github.com/mrlokans/devicecatalog/internal/database/audit"
	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/entities"
	http_controllers "github.com/mrlokans/devicecatalog/internal/http"
	"github.com/mrlokans/devicecatalog/internal/identifiers"
	"github.com/mrlokans/devicecatalog/internal/metrics"
	"github.com/mrlokans/devicecatalog/internal/notify"
	"github.com/mrlokans/devicecatalog/internal/scheduler"
	"github.com/mrlokans/devicecatalog/internal/services"
	"github.com/mrlokans/devicecatalog/internal/tasks"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT. SIGKILL cannot be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so queued alerts can drain.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// NewDeviceService wires the validator, allocator and store around db.
// notifier and auditor may be nil.
func NewDeviceService(db *database.Database, cfg *config.Config, notifier entities.LowBatteryNotifier, auditor services.AuditLogger, recorder services.MetricsRecorder) *services.DeviceService {
	repo := devices.NewRepository(db.DB)
	return services.NewDeviceService(services.DeviceServiceConfig{
		Store:     repo,
		Validator: validation.NewValidator(),
		Allocator: identifiers.NewAllocator(repo, cfg.Devices.AllocatorMaxProbes),
		Notifier:  notifier,
		Audit:     auditor,
		Metrics:   recorder,
	})
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Device Catalog v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	journal := audit.NewJournal(cfg.Audit.Dir)
	if journal.Enabled() {
		log.Printf("Request journal enabled at %s", cfg.Audit.Dir)
	}
	recorder := metrics.NewRecorder()

	// MQTT is optional; without a broker alerts are only logged and audited.
	var publisher tasks.AlertPublisher
	var mqttPublisher *notify.Publisher
	if cfg.MQTT.BrokerURL != "" {
		mqttPublisher, err = notify.Connect(notify.Config{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
		})
		if err != nil {
			log.Printf("WARNING: MQTT unavailable, low battery alerts will not be published: %v", err)
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Close()
		}
	} else {
		log.Printf("MQTT_BROKER_URL is not set. Low battery alerts will not be published.")
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	notifier := tasks.NewLowBatteryNotifier(nil, auditService, recorder)

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewLowBatteryQueue(publisher, recorder),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)
		notifier = tasks.NewLowBatteryNotifier(taskClient, auditService, recorder)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
		if err := cleanupScheduler.Start(taskCtx); err != nil {
			log.Printf("Audit cleanup scheduler not started: %v", err)
		}
	} else {
		log.Printf("Task queue disabled. Low battery alerts will only be audited and audit cleanup will not run.")
	}

	deviceService := NewDeviceService(db, cfg, notifier, auditService, recorder)

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Devices:        deviceService,
		Database:       db,
		Audit:          auditService,
		Journal:        journal,
		MetricsHandler: promhttp.Handler(),
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
