package engine

import (
	"net/http"
	"strconv"

	"github.com/drummonds/pagestrip/database"
	"github.com/drummonds/pagestrip/engine/thumbs"
	"github.com/labstack/echo/v4"
)

type renderStats struct {
	Scheduler *thumbs.Stats           `json:"scheduler,omitempty"`
	Log       *database.RenderSummary `json:"log,omitempty"`
}

// GetRecentRenders retrieves recent render records with pagination
// @Summary Get recent renders
// @Description Retrieve a list of recent render records with pagination
// @Tags Renders
// @Accept json
// @Produce json
// @Param limit query int false "Number of records to return (default: 20)"
// @Param offset query int false "Offset for pagination (default: 0)"
// @Success 200 {array} database.RenderRecord "List of render records"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Failure 503 {object} map[string]interface{} "Render log disabled"
// @Router /renders [get]
func (serverHandler *ServerHandler) GetRecentRenders(c echo.Context) error {
	if serverHandler.DB == nil {
		return noRenderLog(c)
	}
	limit := 20
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	renders, err := serverHandler.DB.GetRecentRenders(limit, offset)
	if err != nil {
		Logger.Error("Failed to get recent renders", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve renders",
		})
	}

	if renders == nil {
		renders = []database.RenderRecord{}
	}

	return c.JSON(http.StatusOK, renders)
}

// GetPageRenders retrieves the render history of one page
// @Summary Get renders for a page
// @Tags Renders
// @Produce json
// @Param page path int true "Page index"
// @Success 200 {array} database.RenderRecord "List of render records"
// @Failure 400 {object} map[string]interface{} "Invalid page"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /renders/page/{page} [get]
func (serverHandler *ServerHandler) GetPageRenders(c echo.Context) error {
	if serverHandler.DB == nil {
		return noRenderLog(c)
	}
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid page",
		})
	}

	renders, err := serverHandler.DB.GetRendersForPage(page)
	if err != nil {
		Logger.Error("Failed to get page renders", "page", page, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve renders",
		})
	}

	if renders == nil {
		renders = []database.RenderRecord{}
	}

	return c.JSON(http.StatusOK, renders)
}

// GetRenderStats reports the live scheduler counters and the render log summary
// @Summary Get render statistics
// @Tags Renders
// @Produce json
// @Success 200 {object} renderStats "Scheduler and render log statistics"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /renders/stats [get]
func (serverHandler *ServerHandler) GetRenderStats(c echo.Context) error {
	stats := renderStats{}
	if doc := serverHandler.currentDocument(); doc != nil {
		schedulerStats := doc.scheduler.Stats()
		stats.Scheduler = &schedulerStats
	}
	if serverHandler.DB != nil {
		summary, err := serverHandler.DB.GetRenderSummary()
		if err != nil {
			Logger.Error("Failed to get render summary", "error", err)
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"error": "Failed to retrieve render summary",
			})
		}
		stats.Log = summary
	}
	return c.JSON(http.StatusOK, stats)
}

func noRenderLog(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
		"error": "Render log disabled",
	})
}
