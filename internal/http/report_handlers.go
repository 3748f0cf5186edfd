package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-tracker/internal/access"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/export"
)

func (h *Handler) buildReport(c *gin.Context) (*domain.Report, bool) {
	mode, err := domain.ParseReportMode(c.Param("mode"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	dr, err := domain.ParseDateRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	report, err := h.reports.Run(c.Request.Context(), mustCaller(c), mode, dr)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return report, true
}

func (h *Handler) runReport(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	report, ok := h.buildReport(c)
	if !ok {
		return
	}

	if format == export.FormatJSON {
		c.JSON(http.StatusOK, export.ToDTO(report))
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report, format); err != nil {
		writeError(c, fmt.Errorf("render report: %w", err))
		return
	}
	if format == export.FormatXLSX {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(report, format)))
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) archiveReport(c *gin.Context) {
	if err := access.Require(mustCaller(c), access.ArchiveReports); err != nil {
		writeError(c, err)
		return
	}
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive not configured"})
		return
	}

	format := export.FormatXLSX
	if q := c.Query("format"); q != "" {
		f, err := export.ParseFormat(q)
		if err != nil {
			writeError(c, err)
			return
		}
		format = f
	}
	report, ok := h.buildReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report, format); err != nil {
		writeError(c, fmt.Errorf("render report: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	ext := string(format)
	if format == export.FormatText {
		ext = "txt"
	}
	stored, err := h.archive.Store(ctx, report, ext, format.ContentType(), &buf)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "archive upload failed, please retry"})
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (h *Handler) listArchives(c *gin.Context) {
	if err := access.Require(mustCaller(c), access.ArchiveReports); err != nil {
		writeError(c, err)
		return
	}
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive not configured"})
		return
	}

	var mode domain.ReportMode
	if q := c.Query("mode"); q != "" {
		m, err := domain.ParseReportMode(q)
		if err != nil {
			writeError(c, err)
			return
		}
		mode = m
	}

	archived, err := h.archive.List(c.Request.Context(), mode)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "list archive failed"})
		return
	}
	c.JSON(http.StatusOK, archived)
}
