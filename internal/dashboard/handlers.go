package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
	"go.uber.org/zap"
)

// Display truncation limits. Presentation-only; stored items keep the full
// input.
const (
	listPreviewLimit   = 100
	resultPreviewLimit = 200
	maxDisplayFeatures = 8
)

// Handlers serves the dashboard API: foreground analyses, the persisted
// history log, the chat assistant proxy, and the theme preference. Unlike
// the background guard, these endpoints surface errors to the caller.
type Handlers struct {
	detector core.DetectorClient
	history  core.HistoryStore
	logger   *zap.Logger
}

// NewHandlers creates the dashboard handlers.
func NewHandlers(detector core.DetectorClient, history core.HistoryStore, logger *zap.Logger) *Handlers {
	return &Handlers{
		detector: detector,
		history:  history,
		logger:   logger,
	}
}

// Register mounts the dashboard routes.
func (h *Handlers) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/status", h.handleStatus)
		api.POST("/analyze/url", h.handleAnalyzeURL)
		api.POST("/analyze/email", h.handleAnalyzeEmail)
		api.POST("/chat", h.handleChat)
		api.GET("/history", h.handleHistoryList)
		api.DELETE("/history", h.handleHistoryClear)
		api.GET("/theme", h.handleThemeGet)
		api.PUT("/theme", h.handleThemeSet)
	}
}

type analyzeURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type analyzeEmailRequest struct {
	Content string `json:"content" binding:"required"`
}

type chatMessageRequest struct {
	Message string             `json:"message" binding:"required"`
	History []core.ChatMessage `json:"history"`
	Context string             `json:"context"`
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// handleStatus handles GET /api/status, the liveness probe of the detection
// API.
func (h *Handlers) handleStatus(c *gin.Context) {
	if err := h.detector.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true})
}

// handleAnalyzeURL handles POST /api/analyze/url.
func (h *Handlers) handleAnalyzeURL(c *gin.Context) {
	var req analyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	h.analyze(c, core.AnalysisTypeURL, req.URL,
		"Failed to analyze URL. Make sure the detection API is reachable.")
}

// handleAnalyzeEmail handles POST /api/analyze/email.
func (h *Handlers) handleAnalyzeEmail(c *gin.Context) {
	var req analyzeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	h.analyze(c, core.AnalysisTypeEmail, req.Content,
		"Failed to analyze email. Make sure the detection API is reachable.")
}

func (h *Handlers) analyze(c *gin.Context, analysisType core.AnalysisType, input, errorMessage string) {
	var (
		result *core.AnalysisResult
		err    error
	)
	if analysisType == core.AnalysisTypeURL {
		result, err = h.detector.AnalyzeURL(c.Request.Context(), input)
	} else {
		result, err = h.detector.AnalyzeEmail(c.Request.Context(), input)
	}
	if err != nil {
		// The dashboard is the one surface that shows errors (with a retry
		// affordance on the frontend).
		h.logger.Error("Foreground analysis failed",
			zap.String("type", string(analysisType)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errorMessage})
		return
	}

	item := core.NewHistoryItem(analysisType, input, result, time.Now())
	if err := h.history.Record(c.Request.Context(), item); err != nil {
		h.logger.Error("Failed to record history item", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"item":          item,
		"input_preview": utils.TruncateForDisplay(input, resultPreviewLimit),
		"features":      utils.FormatFeatures(result.Features, maxDisplayFeatures),
	})
}

// handleChat handles POST /api/chat, proxying to the detection API's
// assistant endpoint.
func (h *Handlers) handleChat(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	response, err := h.detector.Chat(c.Request.Context(), req.Message, req.History, req.Context)
	if err != nil {
		h.logger.Error("Chat request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable right now."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}

type historyItemView struct {
	*core.HistoryItem
	InputPreview string `json:"input_preview"`
	TimeAgo      string `json:"time_ago"`
}

// handleHistoryList handles GET /api/history?filter=.
func (h *Handlers) handleHistoryList(c *gin.Context) {
	filter, ok := core.ParseHistoryFilter(c.Query("filter"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	items, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	now := time.Now()
	views := make([]historyItemView, 0, len(items))
	for _, item := range items {
		views = append(views, historyItemView{
			HistoryItem:  item,
			InputPreview: utils.TruncateForDisplay(item.Input, listPreviewLimit),
			TimeAgo:      utils.TimeAgo(item.Timestamp, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": views})
}

// handleHistoryClear handles DELETE /api/history. The confirm query
// parameter is the explicit confirmation gate; without it nothing is
// discarded.
func (h *Handlers) handleHistoryClear(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation required"})
		return
	}

	if err := h.history.Clear(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleThemeGet handles GET /api/theme.
func (h *Handlers) handleThemeGet(c *gin.Context) {
	theme, err := h.history.Theme(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read theme", zap.Error(err))
		theme = core.ThemeDark
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

// handleThemeSet handles PUT /api/theme.
func (h *Handlers) handleThemeSet(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !core.ValidTheme(req.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme must be dark or light"})
		return
	}

	if err := h.history.SetTheme(c.Request.Context(), req.Theme); err != nil {
		h.logger.Error("Failed to store theme", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store theme"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}
