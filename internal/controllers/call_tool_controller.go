package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bioscanq/scanq/internal/dispatch"
	"github.com/bioscanq/scanq/pkg/domain"
)

type callToolController struct{ d *dispatch.Dispatcher }

func NewCallToolController(d *dispatch.Dispatcher) *callToolController {
	return &callToolController{d: d}
}

// Handle accepts {name, arguments} and always answers 200 with a content
// list; tool-level failures travel as error content, not HTTP errors. Only a
// malformed request body is a protocol error.
func (h *callToolController) Handle(c *gin.Context) {
	var req domain.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tool name is required"})
		return
	}
	content := h.d.Call(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"content": content})
}
