// Package api is the local web server driving the presentation workflow
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/api/web/templates"
	"github.com/aouyang1/pptmaker/outline"
	"github.com/aouyang1/pptmaker/workflow"
	"github.com/gin-gonic/gin"
)

type WebServer struct {
	router *gin.Engine

	controller *workflow.Controller
	gate       *Gate

	localManager    *LocalManager
	remoteManager   *RemoteManager
	settingsManager *SettingsManager
	usageManager    *UsageManager
}

// NewWebServer wires the routes. remoteManager may be nil.
func NewWebServer(
	controller *workflow.Controller,
	localManager *LocalManager,
	remoteManager *RemoteManager,
	settingsManager *SettingsManager,
	usageManager *UsageManager,
) *WebServer {
	ws := &WebServer{
		router:          gin.Default(),
		controller:      controller,
		gate:            NewGate(controller, usageManager),
		localManager:    localManager,
		remoteManager:   remoteManager,
		settingsManager: settingsManager,
		usageManager:    usageManager,
	}
	ws.setupRoutes()
	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/ui/history", ws.handleUIHistory)

	// Workflow
	ws.router.GET("/state", ws.handleGetState)
	ws.router.PUT("/input", ws.handleUpdateInput)
	ws.router.POST("/outline", ws.handleGenerateOutline)
	ws.router.PUT("/outline/slides/:index", ws.handleUpdateSlide)
	ws.router.DELETE("/outline/slides/:index", ws.handleRemoveSlide)
	ws.router.PUT("/template/:id", ws.handleSelectTemplate)
	ws.router.GET("/templates", ws.handleListTemplates)
	ws.router.POST("/presentation", ws.handleGeneratePresentation)
	ws.router.POST("/reset", ws.handleReset)

	// History
	ws.router.GET("/history", ws.handleListHistory)
	ws.router.GET("/history/:name/file", ws.handleHistoryFile)
	ws.router.POST("/history/:name/load", ws.handleLoadHistory)
	ws.router.DELETE("/history/:name", ws.handleDeleteHistory)

	// Limits
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.POST("/settings/refresh", ws.handleRefreshSettings)
	ws.router.GET("/usage", ws.handleGetUsage)
}

// Start runs the background managers and blocks serving addr.
func (ws *WebServer) Start(ctx context.Context, addr string) error {
	if ws.remoteManager != nil {
		go ws.remoteManager.Run(ctx)
	}

	slog.Info("starting web server", "addr", addr)
	if err := ws.router.Run(addr); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	return nil
}

func (ws *WebServer) handleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleUpdateInput(c *gin.Context) {
	var req models.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.Topic != nil {
		ws.controller.SetTopic(*req.Topic)
	}
	if req.NumSlides != nil {
		ws.controller.SetSlideCount(*req.NumSlides)
	}
	if req.Tone != nil {
		if err := ws.controller.SetTone(*req.Tone); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.SlideTypeMode != nil {
		if err := ws.controller.SetSlideTypeMode(workflow.SlideTypeMode(*req.SlideTypeMode)); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.SelectedSlideTypes != nil {
		if err := ws.controller.SetSelectedSlideTypes(req.SelectedSlideTypes); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

// generationStatus maps a generation failure to an http status.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrLimitReached):
		return http.StatusPaymentRequired
	case errors.Is(err, workflow.ErrSave):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// generationContext keeps request values but not cancellation: a generation
// started by a client that goes away still completes and updates state.
func generationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (ws *WebServer) handleGenerateOutline(c *gin.Context) {
	if err := ws.gate.GenerateOutline(generationContext(c)); err != nil {
		c.JSON(generationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleGeneratePresentation(c *gin.Context) {
	if err := ws.gate.GeneratePresentation(generationContext(c)); err != nil {
		c.JSON(generationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func slideIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid slide index"})
		return 0, false
	}
	return index, true
}

func (ws *WebServer) handleUpdateSlide(c *gin.Context) {
	index, ok := slideIndex(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	slide, err := outline.DecodeSlide(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid slide: %v", err)})
		return
	}

	if !ws.controller.UpdateSlide(index, slide) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("No slide at index %d", index)})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleRemoveSlide(c *gin.Context) {
	index, ok := slideIndex(c)
	if !ok {
		return
	}
	if !ws.controller.RemoveSlide(index) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("No slide at index %d", index)})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleSelectTemplate(c *gin.Context) {
	if err := ws.controller.SelectTemplate(c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, outline.Templates)
}

func (ws *WebServer) handleReset(c *gin.Context) {
	if c.Query("keep_template") == "true" {
		ws.controller.ResetAfterSuccess()
	} else {
		ws.controller.Reset()
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

// history returns the saved presentations. Listing failures are logged and
// treated as an empty history.
func (ws *WebServer) history() []HistoryFile {
	files, err := ws.localManager.List()
	if err != nil {
		slog.Warn("unable to list presentations", "error", err)
		return nil
	}
	return files
}

func (ws *WebServer) handleListHistory(c *gin.Context) {
	files := ws.history()
	entries := make([]models.HistoryEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, models.HistoryEntry{
			Name:       f.Name,
			CreatedAt:  f.CreatedAt.Unix(),
			Size:       f.Size,
			HasOutline: ws.localManager.HasSidecar(f.Path),
		})
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Entries: entries})
}

func (ws *WebServer) renderHistory(c *gin.Context) {
	files := ws.history()
	items := make([]templates.HistoryItem, 0, len(files))
	for _, f := range files {
		items = append(items, templates.HistoryItem{
			Name:       f.Name,
			CreatedAt:  f.CreatedAt,
			Size:       f.Size,
			HasOutline: ws.localManager.HasSidecar(f.Path),
		})
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := templates.History(items).Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render history", "error", err)
	}
}

func (ws *WebServer) handleUIHistory(c *gin.Context) {
	ws.renderHistory(c)
}

// historyPath resolves the :name parameter to an existing file, writing the
// error response itself when it cannot.
func (ws *WebServer) historyPath(c *gin.Context) (string, bool) {
	name := c.Param("name")
	path, err := ws.localManager.Resolve(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Presentation %s not found", name)})
			return "", false
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return "", false
	}
	return path, true
}

func (ws *WebServer) handleHistoryFile(c *gin.Context) {
	path, ok := ws.historyPath(c)
	if !ok {
		return
	}
	c.FileAttachment(path, c.Param("name"))
}

func (ws *WebServer) handleLoadHistory(c *gin.Context) {
	path, ok := ws.historyPath(c)
	if !ok {
		return
	}
	if err := ws.controller.LoadFromHistory(path); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: ws.controller.Error()})
		return
	}
	c.JSON(http.StatusOK, ws.controller.Snapshot())
}

func (ws *WebServer) handleDeleteHistory(c *gin.Context) {
	path, ok := ws.historyPath(c)
	if !ok {
		return
	}
	if err := ws.localManager.Delete(path); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	// If HTMX request, return the refreshed history fragment
	if c.GetHeader("HX-Request") == "true" {
		ws.renderHistory(c)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Presentation deleted"})
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, ws.settingsManager.Get())
}

func (ws *WebServer) handleRefreshSettings(c *gin.Context) {
	if err := ws.settingsManager.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ws.settingsManager.Get())
}

func (ws *WebServer) handleGetUsage(c *gin.Context) {
	s, err := ws.usageManager.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.UsageResponse{
		Premium:           s.Premium,
		OutlineCount:      s.OutlineCount,
		OutlineLimit:      s.OutlineLimit,
		OutlinesLeft:      s.OutlinesLeft,
		PresentationCount: s.PresentationCount,
		PresentationLimit: s.PresentationLimit,
		PresentationsLeft: s.PresentationsLeft,
	})
}
