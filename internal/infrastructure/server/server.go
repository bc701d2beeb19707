package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"inventory-tracker/internal/config"
	"inventory-tracker/internal/domain/entity"
	"inventory-tracker/internal/infrastructure/csvfile"
	"inventory-tracker/internal/infrastructure/notifier"
	"inventory-tracker/internal/infrastructure/report"
	controller "inventory-tracker/internal/interfaces/controller/items"
	"inventory-tracker/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg         *config.Config
	echo        *echo.Echo
	logger      *log.Logger
	clock       entity.Clock
	notifiers   notifier.Multi
	itemUsecase usecase.ItemUsecase
	closers     []io.Closer
}

type Option func(*Server)

// WithClock replaces the system clock, mainly for tests.
func WithClock(clock entity.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithNotifier adds another destination for expiry alerts.
func WithNotifier(n usecase.ExpiryNotifier) Option {
	return func(s *Server) {
		s.notifiers = append(s.notifiers, n)
	}
}

func NewServer(cfg *config.Config, opts ...Option) *Server {
	logger := cfg.NewLogger("inventory")

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		clock:     entity.SystemClock{},
		notifiers: notifier.Multi{notifier.NewLogNotifier(logger)},
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.KafkaEnabled() {
		kafkaNotifier := notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		s.notifiers = append(s.notifiers, kafkaNotifier)
		s.closers = append(s.closers, kafkaNotifier)
		logger.Infof("publishing expiry alerts to kafka topic %s", cfg.KafkaTopic)
	}

	manager := usecase.NewInventoryManager(s.clock)
	s.itemUsecase = usecase.NewItemUsecase(
		manager,
		csvfile.NewRepository(),
		s.notifiers,
		report.NewPDFRenderer(),
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	registerRoutes(e, controller.NewItemHandler(s.itemUsecase, cfg.AutoNotify))
	s.echo = e

	return s
}

func registerRoutes(e *echo.Echo, h *controller.ItemHandler) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	items := e.Group("/items")
	items.GET("", h.GetItems)
	items.POST("", h.CreateItem)
	items.GET("/expiring", h.GetExpiringItems)
	items.GET("/expired", h.GetExpiredItems)
	items.GET("/:id", h.GetItem)
	items.PATCH("/:id", h.UpdateItem)
	items.DELETE("/:id", h.DeleteItem)

	e.GET("/summary", h.GetSummary)
	e.GET("/report.pdf", h.GetReport)
	e.POST("/alerts/check", h.CheckExpiring)

	e.POST("/import", h.ImportCSV)
	e.POST("/export", h.ExportCSV)

	e.GET("/settings", h.GetSettings)
	e.PUT("/settings/notifications", h.UpdateNotificationSettings)
}

// Handler exposes the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Seed imports the configured CSV file, if any. Failures are logged; rows read before a
// failure are kept.
func (s *Server) Seed(ctx context.Context) {
	if s.cfg.SeedCSV == "" {
		return
	}

	result, err := s.itemUsecase.ImportCSV(ctx, s.cfg.SeedCSV)
	if err != nil {
		s.logger.Errorf("seed import failed: %v", err)
		if result == nil || result.Added == 0 {
			return
		}
	}
	for _, issue := range result.Errors {
		s.logger.Warnf("seed %s: %s", s.cfg.SeedCSV, issue.Message)
	}

	if s.cfg.AutoNotify {
		if _, err := s.itemUsecase.CheckExpiring(ctx); err != nil {
			s.logger.Warnf("expiry check failed: %v", err)
		}
	}
}

// Run seeds the inventory, serves HTTP until ctx is cancelled and then shuts down.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	s.Seed(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("starting server on port %s", s.cfg.ServerPort)
		if err := s.echo.Start(":" + s.cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warnf("close: %v", err)
		}
	}
}
