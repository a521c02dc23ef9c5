package engine

import (
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/drummonds/pagestrip/config"
	"github.com/drummonds/pagestrip/database"
	"github.com/labstack/echo/v4"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	// OpenRenderer opens documents, pdfrenderer.NewRenderer when nil
	OpenRenderer RendererFunc

	mu  sync.RWMutex
	doc *openDocument
}

// maxThumbnailSize bounds either side of a requested thumbnail
const maxThumbnailSize = 4096

type documentInfo struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	PageCount     int    `json:"pageCount"`
	Renderer      string `json:"renderer"`
	ThumbWidth    int    `json:"thumbWidth"`
	ThumbHeight   int    `json:"thumbHeight"`
	QueueMode     string `json:"queueMode"`
	QueueCapacity int    `json:"queueCapacity"`
	ModTime       string `json:"modTime"`
}

type stripResponse struct {
	Pages       []int `json:"pages"`
	Slots       int   `json:"slots"`
	ThumbWidth  int   `json:"thumbWidth"`
	ThumbHeight int   `json:"thumbHeight"`
	Current     *int  `json:"current,omitempty"`
}

// RegisterRoutes adds every API route to the echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	e.GET("/api/health", serverHandler.GetHealth)

	// Document and strip routes
	e.GET("/api/document", serverHandler.GetDocumentInfo)
	e.GET("/api/strip", serverHandler.GetStrip)
	e.GET("/api/thumbnail/:page", serverHandler.GetThumbnail)
	e.DELETE("/api/thumbnail/:page", serverHandler.InvalidateThumbnail)
	e.POST("/api/cache/clear", serverHandler.ClearCache)

	// Render log routes
	e.GET("/api/renders", serverHandler.GetRecentRenders)
	e.GET("/api/renders/stats", serverHandler.GetRenderStats)
	e.GET("/api/renders/page/:page", serverHandler.GetPageRenders)
}

// GetHealth reports whether the server is up and a document is open
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service status"
// @Router /health [get]
func (serverHandler *ServerHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"service":      "pagestrip",
		"documentOpen": serverHandler.currentDocument() != nil,
	})
}

// GetDocumentInfo describes the open document and the thumbnail settings
// @Summary Get document information
// @Tags Document
// @Produce json
// @Success 200 {object} documentInfo "Document information"
// @Failure 503 {object} map[string]interface{} "No document open"
// @Router /document [get]
func (serverHandler *ServerHandler) GetDocumentInfo(c echo.Context) error {
	doc := serverHandler.currentDocument()
	if doc == nil {
		return noDocument(c)
	}
	serverConfig := serverHandler.ServerConfig
	stats := doc.scheduler.Stats()
	return c.JSON(http.StatusOK, documentInfo{
		Name:          filepath.Base(doc.path),
		Path:          doc.path,
		PageCount:     doc.pageCount,
		Renderer:      serverConfig.RendererBackend,
		ThumbWidth:    serverConfig.ThumbWidth,
		ThumbHeight:   serverConfig.ThumbHeight,
		QueueMode:     stats.Mode,
		QueueCapacity: stats.Capacity,
		ModTime:       doc.modTime.Format(time.RFC3339),
	})
}

// GetStrip returns the pages shown in a strip of the given view width
// @Summary Get strip layout
// @Tags Document
// @Produce json
// @Param width query int false "View width in pixels (default: strip max width)"
// @Param progress query number false "Scrub position in [0,1]"
// @Success 200 {object} stripResponse "Strip layout"
// @Failure 400 {object} map[string]interface{} "Invalid width or progress"
// @Failure 503 {object} map[string]interface{} "No document open"
// @Router /strip [get]
func (serverHandler *ServerHandler) GetStrip(c echo.Context) error {
	doc := serverHandler.currentDocument()
	if doc == nil {
		return noDocument(c)
	}
	serverConfig := serverHandler.ServerConfig

	width := serverConfig.StripMaxWidth
	if widthStr := c.QueryParam("width"); widthStr != "" {
		w, err := strconv.Atoi(widthStr)
		if err != nil || w <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": "Invalid width",
			})
		}
		width = w
	}

	slots := StripSlots(width, serverConfig.ThumbWidth, serverConfig.ThumbPadding, serverConfig.StripMaxWidth)
	response := stripResponse{
		Pages:       StripPages(doc.pageCount, slots),
		Slots:       slots,
		ThumbWidth:  serverConfig.ThumbWidth,
		ThumbHeight: serverConfig.ThumbHeight,
	}

	if progressStr := c.QueryParam("progress"); progressStr != "" {
		progress, err := strconv.ParseFloat(progressStr, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": "Invalid progress",
			})
		}
		current := PageForProgress(progress, doc.pageCount)
		response.Current = &current
	}

	return c.JSON(http.StatusOK, response)
}

// GetThumbnail serves a page thumbnail, or queues its render
// @Summary Get page thumbnail
// @Description Returns the PNG thumbnail when it is cached, otherwise queues a render and returns 202
// @Tags Thumbnails
// @Produce png
// @Param page path int true "Page index"
// @Param w query int false "Thumbnail width (default: configured thumbnail width)"
// @Param h query int false "Thumbnail height (default: configured thumbnail height)"
// @Success 200 {file} binary "PNG thumbnail"
// @Success 202 {object} map[string]interface{} "Render pending"
// @Failure 400 {object} map[string]interface{} "Invalid size"
// @Failure 404 {object} map[string]interface{} "Page not found"
// @Failure 503 {object} map[string]interface{} "No document open"
// @Router /thumbnail/{page} [get]
func (serverHandler *ServerHandler) GetThumbnail(c echo.Context) error {
	doc := serverHandler.currentDocument()
	if doc == nil {
		return noDocument(c)
	}
	page, ok := parsePage(c, doc)
	if !ok {
		return pageNotFound(c)
	}

	width, err := sizeParam(c, "w", serverHandler.ServerConfig.ThumbWidth)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid thumbnail width",
		})
	}
	height, err := sizeParam(c, "h", serverHandler.ServerConfig.ThumbHeight)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid thumbnail height",
		})
	}

	result, ok := doc.scheduler.Request(page, width, height)
	if !ok {
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"status": "pending",
			"page":   page,
		})
	}

	data, err := EncodeThumbnail(result, width, height)
	if err != nil {
		Logger.Error("Failed to encode thumbnail", "page", page, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to encode thumbnail",
		})
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

// InvalidateThumbnail drops one cached page so it is rendered again
// @Summary Invalidate page thumbnail
// @Tags Thumbnails
// @Produce json
// @Param page path int true "Page index"
// @Success 200 {object} map[string]interface{} "Page invalidated"
// @Failure 404 {object} map[string]interface{} "Page not found"
// @Failure 503 {object} map[string]interface{} "No document open"
// @Router /thumbnail/{page} [delete]
func (serverHandler *ServerHandler) InvalidateThumbnail(c echo.Context) error {
	doc := serverHandler.currentDocument()
	if doc == nil {
		return noDocument(c)
	}
	page, ok := parsePage(c, doc)
	if !ok {
		return pageNotFound(c)
	}
	doc.scheduler.Invalidate(page)
	Logger.Debug("Thumbnail invalidated", "page", page)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Thumbnail invalidated",
		"page":    page,
	})
}

// ClearCache drops every cached thumbnail
// @Summary Clear thumbnail cache
// @Tags Thumbnails
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache cleared"
// @Failure 503 {object} map[string]interface{} "No document open"
// @Router /cache/clear [post]
func (serverHandler *ServerHandler) ClearCache(c echo.Context) error {
	doc := serverHandler.currentDocument()
	if doc == nil {
		return noDocument(c)
	}
	cleared := doc.scheduler.Cache().Len()
	doc.scheduler.Cache().Clear()
	Logger.Info("Thumbnail cache cleared", "entries", cleared)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Cache cleared",
		"cleared": cleared,
	})
}

func parsePage(c echo.Context, doc *openDocument) (int, bool) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 0 || page >= doc.pageCount {
		return 0, false
	}
	return page, true
}

// sizeParam reads a positive pixel size, falling back to def when the parameter is absent
func sizeParam(c echo.Context, name string, def int) (int, error) {
	value := c.QueryParam(name)
	if value == "" {
		return def, nil
	}
	size, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if size <= 0 || size > maxThumbnailSize {
		return 0, strconv.ErrRange
	}
	return size, nil
}

func noDocument(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
		"error": "No document open",
	})
}

func pageNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]interface{}{
		"error": "Page not found",
	})
}
