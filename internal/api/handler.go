package api

import (
	"log/slog"

	"github.com/shaiso/taskroute/internal/mq"
	"github.com/shaiso/taskroute/internal/routes"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	router   *routes.Router
	producer *mq.Producer
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Router *routes.Router

	// Producer — опционально; без него POST /api/v1/send отвечает 503.
	Producer *mq.Producer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		router:   cfg.Router,
		producer: cfg.Producer,
		logger:   logger,
	}
}
