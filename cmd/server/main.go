package main

import (
	"context"
	"log"
	"time"

	"kiosk-inventory/config"
	"kiosk-inventory/internal/cache"
	"kiosk-inventory/internal/database"
	"kiosk-inventory/internal/handler"
	"kiosk-inventory/internal/queue"
	"kiosk-inventory/internal/repository"
	"kiosk-inventory/internal/service"
	"kiosk-inventory/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ticketTypeRepo := repository.NewTicketTypeRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	auditQueue, err := queue.NewRedisStreamAuditQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize audit queue: %v", err)
	}

	viewCache := cache.NewStockViewCache(rdb, 30*time.Second)

	codeGen := service.NewCodeGenerator(ticketTypeRepo)
	notifier := service.NewStockNotifier(notificationRepo)
	inventoryService := service.NewInventoryService(ticketTypeRepo, codeGen, notifier, auditQueue, viewCache)
	notificationService := service.NewNotificationService(notificationRepo)
	auditService := service.NewAuditService(auditRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auditWorker := worker.NewAuditWorker(auditRepo, auditQueue)
	if err := auditWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start audit worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewTicketTypeHandler(inventoryService).RegisterRoutes(router)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(router)
	handler.NewAuditHandler(auditService).RegisterRoutes(router)

	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
