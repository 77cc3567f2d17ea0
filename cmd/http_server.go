package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/auth"
	authPostgres "github.com/frahmantamala/restaurant-ops/internal/auth/postgres"
	"github.com/frahmantamala/restaurant-ops/internal/core/events"
	"github.com/frahmantamala/restaurant-ops/internal/employee"
	employeePostgres "github.com/frahmantamala/restaurant-ops/internal/employee/postgres"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
	schedulePostgres "github.com/frahmantamala/restaurant-ops/internal/schedule/postgres"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
	"github.com/frahmantamala/restaurant-ops/internal/transport/openapi"
	"github.com/frahmantamala/restaurant-ops/internal/transport/rest"
	"github.com/frahmantamala/restaurant-ops/pkg/logger"
	"github.com/frahmantamala/restaurant-ops/pkg/tracing"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *Database
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
	closers  []func(context.Context) error
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "version", Version)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.shutdown(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// shutdown releases resources in reverse order of acquisition.
func (d *Dependencies) shutdown(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			d.Logger.Error("shutdown step failed", "error", err)
		}
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()
	deps := &Dependencies{Config: config, Logger: lg}

	tc := config.Observability.Tracing
	shutdownTracing, err := tracing.Setup(ctx, tracing.Options{
		Enabled:        tc.Enabled,
		ServiceName:    tc.ServiceName,
		ServiceVersion: Version,
		Endpoint:       tc.Endpoint,
		Insecure:       tc.Insecure,
		SamplingRate:   tc.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	deps.closers = append(deps.closers, shutdownTracing)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db
	deps.closers = append(deps.closers, func(context.Context) error { return db.Close() })

	deps.EventBus = events.NewEventBus(lg)
	deps.EventBus.SubscribeAll(func(ctx context.Context, event events.Event) error {
		logger.From(ctx).Debug("schedule event", "event_type", event.EventType(), "event_id", event.EventID())
		return nil
	})
	if kc := config.Messaging.Kafka; kc.Enabled {
		forwarder := events.NewKafkaForwarder(events.NewKafkaWriter(kc.Brokers, kc.Topic), lg)
		forwarder.Register(deps.EventBus)
		deps.closers = append(deps.closers, func(context.Context) error { return forwarder.Close() })
		lg.Info("forwarding schedule events to kafka", "brokers", kc.Brokers, "topic", kc.Topic)
	}

	doc, err := openapi.Load(ctx, openAPIPath(config.Server.OpenAPIPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	timeout := config.Database.QueryTimeout
	base := transport.NewBaseHandler(lg)

	authService := auth.NewService(
		authPostgres.NewRepository(db.Gorm),
		auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration),
		lg, timeout,
	)
	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(db.Gorm), lg, timeout)
	scheduleService := schedule.NewService(schedulePostgres.NewScheduleStore(db.Gorm), deps.EventBus, lg, timeout)

	deps.Router = chi.NewRouter()
	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Base:     base,
		Health:   rest.NewHealthHandler(Version, map[string]rest.Pinger{"database": db.SQL}),
		Auth:     auth.NewHandler(base, authService),
		Employee: employee.NewHandler(base, employeeService),
		Schedule: schedule.NewHandler(base, scheduleService),
	}, rest.RouterOptions{
		AllowedOrigins: config.Server.Origins(),
		Document:       doc,
	}, lg)

	return deps, nil
}

// openAPIPath falls back to the embedded document when the configured file
// is not present, e.g. in a container image that ships only the binary.
func openAPIPath(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
