package agent

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/overlay"
	"github.com/phishguard/phishguard/internal/popup"
	"go.uber.org/zap"
)

// Handlers exposes the background guard over HTTP: navigation events in,
// per-tab results and warning state out. This is the surface a thin browser
// shim talks to in place of extension messaging.
type Handlers struct {
	guard  *core.GuardService
	popup  *popup.Service
	pages  *overlay.Registry
	logger *zap.Logger
}

// NewHandlers creates the agent handlers.
func NewHandlers(guard *core.GuardService, popupSvc *popup.Service, pages *overlay.Registry, logger *zap.Logger) *Handlers {
	return &Handlers{
		guard:  guard,
		popup:  popupSvc,
		pages:  pages,
		logger: logger,
	}
}

// Register mounts the agent routes.
func (h *Handlers) Register(r gin.IRouter) {
	v1 := r.Group("/agent/v1")
	{
		v1.POST("/navigations", h.handleNavigation)
		v1.GET("/tabs/:id/result", h.handleTabResult)
		v1.GET("/tabs/:id/warning", h.handleWarning)
		v1.POST("/tabs/:id/warning/back", h.handleGoBack)
		v1.POST("/tabs/:id/warning/proceed", h.handleProceed)
		v1.DELETE("/tabs/:id", h.handleCloseTab)
	}
}

type navigationRequest struct {
	// Pointer so that tab id 0, a valid browser tab, survives the
	// required check.
	TabID *int   `json:"tab_id" binding:"required"`
	URL   string `json:"url" binding:"required"`
}

// handleNavigation handles POST /agent/v1/navigations. The analysis runs in
// the background; the caller never waits on the detection API.
func (h *Handlers) handleNavigation(c *gin.Context) {
	var req navigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tab_id and url are required"})
		return
	}

	tabID := core.TabID(*req.TabID)
	h.pages.Get(tabID).Navigate(req.URL)

	go h.guard.AnalyzeNavigation(context.WithoutCancel(c.Request.Context()), tabID, req.URL)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// handleTabResult handles GET /agent/v1/tabs/:id/result. It backs the popup:
// a stored result is returned immediately, otherwise an analysis of the
// given url is triggered and awaited within the popup's wait window.
func (h *Handlers) handleTabResult(c *gin.Context) {
	tabID, ok := h.tabID(c)
	if !ok {
		return
	}

	url := c.Query("url")
	result, err := h.popup.CurrentResult(c.Request.Context(), tabID, url)
	if err != nil {
		if errors.Is(err, popup.ErrUnavailable) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "analysis unavailable"})
			return
		}
		h.logger.Error("Failed to get tab result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// handleWarning handles GET /agent/v1/tabs/:id/warning. It reports the
// active overlay and its two available actions.
func (h *Handlers) handleWarning(c *gin.Context) {
	tabID, ok := h.tabID(c)
	if !ok {
		return
	}

	page, ok := h.pages.Lookup(tabID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tab"})
		return
	}

	result, active := page.Active()
	if !active {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active warning"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":  result,
		"actions": []string{"Go Back", "Proceed Anyway"},
	})
}

// handleGoBack handles POST /agent/v1/tabs/:id/warning/back.
func (h *Handlers) handleGoBack(c *gin.Context) {
	tabID, ok := h.tabID(c)
	if !ok {
		return
	}

	page, ok := h.pages.Lookup(tabID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tab"})
		return
	}

	url, ok := page.GoBack()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"url": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// handleProceed handles POST /agent/v1/tabs/:id/warning/proceed.
func (h *Handlers) handleProceed(c *gin.Context) {
	tabID, ok := h.tabID(c)
	if !ok {
		return
	}

	page, ok := h.pages.Lookup(tabID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tab"})
		return
	}

	page.Proceed()
	c.Status(http.StatusNoContent)
}

// handleCloseTab handles DELETE /agent/v1/tabs/:id.
func (h *Handlers) handleCloseTab(c *gin.Context) {
	tabID, ok := h.tabID(c)
	if !ok {
		return
	}

	h.pages.Close(tabID)
	h.guard.CloseTab(tabID)

	c.Status(http.StatusNoContent)
}

func (h *Handlers) tabID(c *gin.Context) (core.TabID, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tab id"})
		return 0, false
	}
	return core.TabID(id), true
}
