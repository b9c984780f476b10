package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderserver/ai"
	"orderserver/automation"
	"orderserver/catalog"
	"orderserver/customer"
	"orderserver/internal/config"
	"orderserver/interpret"
	"orderserver/server"
	"orderserver/store"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════")
	log.Println("🚀 Запуск Order Interpretation Server...")

	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Создаем базу данных
	dbConfig := store.DBConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	db, err := store.NewDBWithConfig(cfg.DatabasePath, dbConfig)
	if err != nil {
		log.Fatalf("Ошибка создания базы данных: %v", err)
	}
	defer db.Close()

	// Наполняем демо-данными, если каталог пуст
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureDemoData(seedCtx); err != nil {
		log.Printf("⚠ Предупреждение: не удалось записать демо-данные: %v", err)
	}
	seedCancel()

	// Кэши каталога и клиентов
	catalogCache := catalog.NewCache(db, catalog.DefaultAliases(), cfg.CatalogCacheTTL)
	customerCache := customer.NewCache(db, cfg.CustomerCacheTTL)

	// AI-ассистент для снятия неоднозначностей (опционально)
	var assist interpret.AssistClient
	if cfg.AssistAPIKey != "" {
		if cfg.AssistBaseURL != "" {
			assist = ai.NewClientWithBaseURL(cfg.AssistAPIKey, cfg.AssistModel, cfg.AssistBaseURL)
		} else {
			assist = ai.NewClient(cfg.AssistAPIKey, cfg.AssistModel)
		}
		log.Printf("✓ AI-ассистент включен (модель %s)", cfg.AssistModel)
	} else {
		log.Println("⚠ ASSIST_API_KEY не задан, неоднозначности уходят пользователю")
	}

	// Конвейер интерпретации
	interpretConfig := interpret.DefaultConfig()
	interpretConfig.CustomerThreshold = cfg.CustomerThreshold
	interpretConfig.MaxQuantity = cfg.MaxQuantity
	interpretConfig.SmartCorrection = cfg.SmartCorrection
	interpretConfig.DefaultHonorific = cfg.DefaultHonorific
	interpreter := interpret.NewInterpreter(
		catalogCache,
		customerCache,
		catalog.NewMatcher(catalog.DefaultMatcherConfig()),
		assist,
		interpretConfig,
	)

	// Движок автоматизации
	policy, err := automation.PolicyByName(cfg.AutomationPolicy)
	if err != nil {
		log.Fatalf("Ошибка конфигурации автоматизации: %v", err)
	}
	engine := automation.NewEngine(policy, automation.NewStats())

	srv := server.New(server.Config{
		Port:      cfg.Port,
		UploadDir: cfg.UploadDir,
	}, db, catalogCache, customerCache, interpreter, engine)

	// Запускаем сервер в отдельной горутине
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Fatalf("✗ КРИТИЧЕСКАЯ ОШИБКА: Паника при запуске сервера: %v", r)
			}
		}()
		if err := srv.Start(); err != nil {
			log.Fatalf("✗ КРИТИЧЕСКАЯ ОШИБКА: Ошибка запуска сервера: %v", err)
		}
	}()

	// Обработка сигналов для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("═══════════════════════════════════════════════════════")
		log.Println("⏹  Получен сигнал завершения, останавливаю сервер...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("✗ Ошибка при остановке сервера: %v", err)
		} else {
			log.Println("✓ Сервер успешно остановлен")
		}

		cancel()
	}()

	log.Println("═══════════════════════════════════════════════════════")
	log.Printf("✓ Сервер успешно запущен на порту %s", cfg.Port)
	log.Printf("✓ API доступно: http://localhost:%s", cfg.Port)
	log.Printf("✓ База данных: %s", cfg.DatabasePath)
	log.Printf("✓ Политика автоматизации: %s", cfg.AutomationPolicy)
	log.Println("  Для остановки нажмите Ctrl+C")
	log.Println("═══════════════════════════════════════════════════════")

	<-ctx.Done()
}
