package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/merlin/internal/pkg/errcode"
	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
	"github.com/xxxsen/merlin/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrEmptyContent):
		response.Error(c, errcode.ErrEmptyContent, "empty content")
	case errors.Is(err, appErr.ErrFetch):
		response.Error(c, errcode.ErrFetchFailed, "failed to fetch url content")
	case errors.Is(err, appErr.ErrEmbedding):
		response.Error(c, errcode.ErrEmbeddingFailed, "failed to compute embedding")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
