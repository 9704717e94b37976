package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/merlin/internal/pkg/errcode"
	"github.com/xxxsen/merlin/internal/pkg/response"
	"github.com/xxxsen/merlin/internal/service"
)

type SearchHandler struct {
	query *service.QueryService
}

func NewSearchHandler(query *service.QueryService) *SearchHandler {
	return &SearchHandler{query: query}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type summarizeRequest struct {
	Content string `json:"content"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.query.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}

func (h *SearchHandler) Summarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.query.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
