package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"orderserver/automation"
	"orderserver/catalog"
	"orderserver/customer"
	"orderserver/interpret"
	"orderserver/server/middleware"
	"orderserver/store"
)

// Config конфигурация HTTP сервера
type Config struct {
	Port      string // Порт прослушивания
	UploadDir string // Каталог временных файлов импорта
}

// Server HTTP сервер интерпретации заказов
type Server struct {
	config        Config
	db            *store.DB
	catalogCache  *catalog.Cache
	customerCache *customer.Cache
	interpreter   *interpret.Interpreter
	automation    *automation.Engine

	router     *gin.Engine
	httpServer *http.Server
}

// New собирает сервер с роутером и middleware
func New(
	config Config,
	db *store.DB,
	catalogCache *catalog.Cache,
	customerCache *customer.Cache,
	interpreter *interpret.Interpreter,
	engine *automation.Engine,
) *Server {
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.UploadDir == "" {
		config.UploadDir = os.TempDir()
	}

	s := &Server{
		config:        config,
		db:            db,
		catalogCache:  catalogCache,
		customerCache: customerCache,
		interpreter:   interpreter,
		automation:    engine,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter создает gin router с middleware и маршрутами
func (s *Server) buildRouter() *gin.Engine {
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/interpret", s.handleInterpret)
		api.POST("/orders/:id/reverse", s.handleReverseOrder)
		api.GET("/automation/stats", s.handleAutomationStats)
		api.POST("/catalog/reload", s.handleCatalogReload)
		api.POST("/catalog/import", s.handleCatalogImport)
		api.PUT("/catalog/:id/stock", s.handleUpdateStock)
	}

	return router
}

// Handler возвращает корневой http.Handler (для тестов и встраивания)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting HTTP server on %s...", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
