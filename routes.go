package main

import (
	"net/http"

	"smart-task-list/internal/cache"
	"smart-task-list/internal/handlers"
	"smart-task-list/internal/middleware"
	"smart-task-list/internal/monitoring"
	"smart-task-list/internal/worker"

	"github.com/gin-gonic/gin"
)

func (a *app) setupRouter() *gin.Engine {
	router := gin.New()
	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())

	tasks := handlers.NewTaskHandler(a.store)
	notes := handlers.NewNotificationHandler(a.notifications, a.center)
	gw := handlers.NewGatewayHandler(a.gateway)

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())
	router.GET("/metrics/storage", a.storageStats)

	api := router.Group("/api")
	api.Use(middleware.CORS(a.cfg.CORS))
	if a.limiter != nil {
		api.Use(a.limiter.Middleware())
	}
	{
		api.GET("/tasks", tasks.GetTasks)
		api.POST("/tasks", tasks.CreateTask)
		api.GET("/tasks/count", tasks.GetCount)
		api.PUT("/tasks/filter", tasks.SetFilter)
		api.POST("/tasks/:id/toggle", tasks.ToggleTask)
		api.DELETE("/tasks/:id", tasks.DeleteTask)

		api.GET("/notifications/preferences", notes.GetPreferences)
		api.POST("/notifications/permission", notes.RequestPermission)
		api.POST("/notifications/toggle", notes.Toggle)
		api.GET("/notifications", notes.ListNotifications)
		api.POST("/notifications/:id/click", notes.ClickNotification)

		api.GET("/clients", notes.ListClients)
		api.POST("/clients", notes.RegisterClient)
		api.DELETE("/clients/:id", notes.UnregisterClient)

		api.POST("/push", gw.Push)
		api.GET("/status", gw.Status)
	}

	sw := router.Group("/sw")
	{
		sw.POST("/install", gw.Install)
		sw.POST("/activate", gw.Activate)
		sw.GET("/stats", gw.Stats)
	}

	router.NoRoute(gw.Proxy)
	return router
}

func (a *app) storageStats(c *gin.Context) {
	stats := gin.H{"driver": a.cfg.Database.Driver}
	if a.pool != nil {
		stats["database"] = a.pool.Stats()
	}
	if a.redis != nil {
		stats["redis"] = cache.NewRedisStorage(a.redis).Stats()

		queue := worker.NewJobQueue(a.redis)
		sizes := make(map[string]int64, len(a.cfg.Worker.Queues))
		for _, name := range a.cfg.Worker.Queues {
			size, err := queue.GetQueueSize(c.Request.Context(), name)
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to read queue size", "details": err.Error()})
				return
			}
			sizes[name] = size
		}
		stats["queues"] = sizes
	}
	c.JSON(http.StatusOK, stats)
}
