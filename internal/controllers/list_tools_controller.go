package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bioscanq/scanq/internal/dispatch"
)

type listToolsController struct{ d *dispatch.Dispatcher }

func NewListToolsController(d *dispatch.Dispatcher) *listToolsController {
	return &listToolsController{d: d}
}

func (h *listToolsController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.d.Tools()})
}
