package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bloomtrack/backend/config"
	"bloomtrack/backend/internal/api/handler"
	"bloomtrack/backend/internal/api/middleware"
	"bloomtrack/backend/pkg/jwt"
	"bloomtrack/backend/pkg/metrics"
	"bloomtrack/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.ClientInfo())
	r.Use(m.Middleware())

	// ── 健康检查与监控 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", m.Handler())

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 开花房模块
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", h.Room.ListRooms)
			rooms.GET("/harvest-calendar.ics", h.Archive.HarvestCalendar)
			rooms.GET("/:id", h.Room.GetRoom)
			rooms.PUT("/:id", h.Room.UpdateRoom) // 周期名编辑在 Handler 内单独鉴权
			rooms.POST("/:id/start-cycle", middleware.Permission("cycles:start"), h.Room.StartCycle)
			rooms.POST("/:id/reset-cycle", middleware.Permission("harvest:complete"), h.Room.ResetCycle)
			rooms.POST("/:id/notes", h.Room.AddNote)
			rooms.GET("/:id/logs", h.Room.ListRoomLogs)
			rooms.POST("/:id/tasks", h.Room.CreateTask)
			rooms.GET("/:id/tasks", h.Room.ListTasks)
			rooms.POST("/:id/harvest-archive", middleware.Permission("harvest:complete"), h.Archive.HarvestAndArchive)
		}

		// 房间任务（跨房间操作）
		tasks := authorized.Group("/tasks")
		{
			tasks.PUT("/:id", h.Room.UpdateTask)
			tasks.DELETE("/:id", h.Room.DeleteTask)
		}

		// 收获会话模块
		harvest := authorized.Group("/harvest")
		{
			harvest.POST("/sessions", middleware.Permission("harvest:record"), h.Harvest.CreateSession)
			harvest.GET("/sessions", h.Harvest.ListSessions)
			harvest.GET("/sessions/:id", h.Harvest.GetSession)
			harvest.PUT("/sessions/:id", middleware.Permission("harvest:record"), h.Harvest.UpdateSession)
			harvest.POST("/sessions/:id/complete", middleware.Permission("harvest:complete"), h.Harvest.CompleteSession)
			harvest.POST("/sessions/:id/plants", middleware.Permission("harvest:record"), h.Harvest.AddPlant)
			harvest.DELETE("/sessions/:id/plants/:plantId", middleware.Permission("harvest:record"), h.Harvest.RemovePlant)
			harvest.PUT("/sessions/:id/plants/:plantId/error-note", middleware.Permission("harvest:record"), h.Harvest.SetPlantErrorNote)
			harvest.POST("/sessions/:id/crew", h.Harvest.JoinCrew)
			harvest.POST("/sessions/:id/crew/force", h.Harvest.ForceJoinCrew)
			harvest.DELETE("/sessions/:id/crew", h.Harvest.LeaveCrew)
			harvest.GET("/sessions/:id/crew-stats", h.Harvest.CrewStats)
			harvest.GET("/rooms/:roomId/active", h.Harvest.GetActiveSession)
		}

		// 周期归档模块
		archives := authorized.Group("/archives")
		{
			archives.GET("", h.Archive.ListArchives)
			archives.GET("/stats", middleware.Permission("stats:view"), h.Archive.GetStats)
			archives.GET("/export", middleware.Permission("stats:view"), h.Archive.ExportArchives)
			archives.GET("/deleted", middleware.Permission("archive:delete"), h.Archive.ListDeleted)
			archives.GET("/:id", h.Archive.GetArchive)
			archives.PUT("/:id", middleware.Permission("archive:edit"), h.Archive.UpdateArchive) // 重量字段在 Handler 内单独鉴权
			archives.DELETE("/:id", middleware.Permission("archive:delete"), h.Archive.DeleteArchive)
			archives.POST("/:id/restore", middleware.Permission("archive:delete"), h.Archive.RestoreArchive)
		}

		// 修剪模块
		trim := authorized.Group("/trim")
		{
			trim.GET("/active", h.Trim.ListActive)
			trim.GET("/stats/daily", middleware.Permission("stats:view"), h.Trim.DailyStats)
			trim.GET("/archives/:id/logs", h.Trim.ListLogs)
			trim.PUT("/archives/:id", middleware.Permission("trim:edit"), h.Trim.UpdateTrimArchive)
			trim.POST("/archives/:id/complete", middleware.Permission("trim:edit"), h.Trim.CompleteTrim)
			trim.POST("/logs", middleware.Permission("trim:create"), h.Trim.AddLog)
			trim.DELETE("/logs/:id", middleware.Permission("trim:edit"), h.Trim.DeleteLog)
			trim.POST("/logs/:id/restore", middleware.Permission("trim:edit"), h.Trim.RestoreLog)
		}

		// 品种模块
		strains := authorized.Group("/strains")
		{
			strains.GET("", h.Strain.ListStrains)
			strains.GET("/deleted", middleware.Permission("strains:merge"), h.Strain.ListDeleted)
			strains.POST("", h.Strain.CreateStrain)
			strains.POST("/merge", middleware.Permission("strains:merge"), h.Strain.MergeStrains)
			strains.POST("/restore-recent", middleware.Permission("strains:merge"), h.Strain.RestoreRecent)
			strains.PUT("/:id", h.Strain.UpdateStrain)
			strains.DELETE("/:id", h.Strain.DeleteStrain)
			strains.POST("/:id/restore", h.Strain.RestoreStrain)
		}

		// 育苗与克隆模块
		authorized.PUT("/clone-cuts", h.Propagation.UpsertCloneCut)
		authorized.GET("/clone-cuts", h.Propagation.ListCloneCuts)
		authorized.POST("/clone-cuts/:id/done", h.Propagation.MarkCloneCutDone)
		authorized.DELETE("/clone-cuts/:id", h.Propagation.DeleteCloneCut)

		vegBatches := authorized.Group("/veg-batches")
		{
			vegBatches.POST("", h.Propagation.CreateVegBatch)
			vegBatches.GET("", h.Propagation.ListVegBatches)
			vegBatches.GET("/:id", h.Propagation.GetVegBatch)
			vegBatches.PUT("/:id", h.Propagation.UpdateVegBatch)
			vegBatches.POST("/:id/transplant", h.Propagation.TransplantToFlower)
			vegBatches.DELETE("/:id", h.Propagation.DeleteVegBatch)
		}

		// 操作审计
		authorized.GET("/audit-logs", middleware.Permission("audit:view"), h.Audit.ListAuditLogs)
	}

	return r
}
