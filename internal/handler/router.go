package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Cache    *CacheHandler
	Sessions *SessionHandler
	Chunks   *ChunkHandler
	Stats    *StatsHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/cache/batch", deps.Cache.Batch)
	api.POST("/cache/entries", deps.Cache.Put)
	api.GET("/cache/entry", deps.Cache.Get)
	api.POST("/embed", deps.Cache.Embed)

	api.POST("/sessions", deps.Sessions.Create)
	api.GET("/sessions/:job/:id", deps.Sessions.Get)
	api.POST("/sessions/:job/:id/progress", deps.Sessions.Progress)
	api.POST("/sessions/:job/:id/pause", deps.Sessions.Pause)
	api.POST("/sessions/:job/:id/resume", deps.Sessions.Resume)
	api.POST("/sessions/:job/:id/complete", deps.Sessions.Complete)
	api.POST("/sessions/:job/:id/fail", deps.Sessions.Fail)
	api.GET("/sessions/:job/:id/resume-data", deps.Sessions.ResumeData)

	api.PUT("/sessions/:job/:id/chunks/:chunkId", deps.Chunks.Save)
	api.GET("/sessions/:job/:id/chunks/:chunkId", deps.Chunks.Load)
	api.GET("/sessions/:job/:id/chunks", deps.Chunks.List)

	api.GET("/stats", deps.Stats.Stats)
	api.POST("/admin/sweep", deps.Stats.Sweep)
}
