package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/merlin/internal/pkg/errcode"
	"github.com/xxxsen/merlin/internal/pkg/response"
	"github.com/xxxsen/merlin/internal/service"
)

type NoteHandler struct {
	ingest *service.IngestService
	query  *service.QueryService
}

func NewNoteHandler(ingest *service.IngestService, query *service.QueryService) *NoteHandler {
	return &NoteHandler{ingest: ingest, query: query}
}

type ingestRequest struct {
	Input string `json:"input"`
	Title string `json:"title"`
}

func (h *NoteHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	note, similar, err := h.ingest.Ingest(c.Request.Context(), req.Input, req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"note": note, "similar": similar})
}

func (h *NoteHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid note id")
		return
	}
	note, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	notes, err := h.query.Recent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"notes": notes})
}

func (h *NoteHandler) Similar(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid note id")
		return
	}
	k, _ := strconv.Atoi(c.DefaultQuery("k", "0"))
	results, err := h.query.Similar(c.Request.Context(), id, k)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}
