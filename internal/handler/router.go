package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Process *ProcessHandler
	Notes   *NoteHandler
	Search  *SearchHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/process", deps.Process.Process)
	api.POST("/route", deps.Process.Route)

	api.POST("/notes", deps.Notes.Ingest)
	api.GET("/notes/recent", deps.Notes.Recent)
	api.GET("/notes/:id", deps.Notes.Get)
	api.GET("/notes/:id/similar", deps.Notes.Similar)

	api.POST("/search", deps.Search.Search)
	api.POST("/summarize", deps.Search.Summarize)
}
