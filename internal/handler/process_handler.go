package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/merlin/internal/pkg/errcode"
	"github.com/xxxsen/merlin/internal/pkg/response"
	"github.com/xxxsen/merlin/internal/service"
)

type ProcessHandler struct {
	process *service.ProcessService
}

func NewProcessHandler(process *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{process: process}
}

type processRequest struct {
	Input string `json:"input"`
}

// Process is the unified entry: classify the input, dispatch to the
// matching pipeline and return both the decision and its result.
func (h *ProcessHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.process.Process(c.Request.Context(), req.Input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Route exposes the classification decision without executing it.
func (h *ProcessHandler) Route(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	decision := h.process.Route(c.Request.Context(), req.Input)
	response.Success(c, decision)
}
