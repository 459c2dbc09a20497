package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/internal/export"
	"github.com/andresuchdata/rop-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// parseRange reads the start/end query parameters (YYYY-MM-DD, inclusive).
func parseRange(c *gin.Context) (domain.DateRange, bool) {
	var rng domain.DateRange

	start := strings.TrimSpace(c.Query("start"))
	end := strings.TrimSpace(c.Query("end"))
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end query parameters are required (YYYY-MM-DD)"})
		return rng, false
	}

	startDate, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date", "details": err.Error()})
		return rng, false
	}
	endDate, err := time.ParseInLocation("2006-01-02", end, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date", "details": err.Error()})
		return rng, false
	}

	rng = domain.DateRange{Start: startDate, End: endDate}
	if err := rng.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return rng, false
	}
	return rng, true
}

// GetAnalysis runs one ROP method over the requested range and returns the
// flat per-(date, city, item) table.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}

	method, err := domain.ParseMethod(c.DefaultQuery("method", string(domain.MethodTieredABC)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.RunAnalysis(c.Request.Context(), domain.AnalysisParams{Range: rng, Method: method})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"method": method,
		"rows":   rows,
		"total":  len(rows),
	})
}

// GetErrors compares all three methods against realized forward demand.
func (h *AnalysisHandler) GetErrors(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}

	rows, summaries, err := h.service.CompareMethods(c.Request.Context(), rng)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := gin.H{"summary": summaries, "total": len(rows)}
	if c.DefaultQuery("include_rows", "false") == "true" {
		response["rows"] = rows
	}
	c.JSON(http.StatusOK, response)
}

// GetPivot returns the per-city cross-tab view of one analysis run.
func (h *AnalysisHandler) GetPivot(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}

	method, err := domain.ParseMethod(c.DefaultQuery("method", string(domain.MethodTieredABC)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.RunAnalysis(c.Request.Context(), domain.AnalysisParams{Range: rng, Method: method})
	if err != nil {
		h.writeError(c, err)
		return
	}

	tables := export.BuildPivot(rows)
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		filtered := tables[:0]
		for _, t := range tables {
			if strings.EqualFold(t.City, city) {
				filtered = append(filtered, t)
			}
		}
		tables = filtered
	}

	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *AnalysisHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidDateRange) || errors.Is(err, domain.ErrUnknownMethod) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": "analysis failed", "details": err.Error()})
}
