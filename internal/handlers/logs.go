package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"elevator_control/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLoadLogs    = "failed to load logs"
	errClearLogs   = "failed to clear logs"
	errExportLogs  = "failed to export logs"

	statusCleared = "cleared"

	layoutDateTime   = "2006-01-02 15:04:05"
	layoutDate       = "2006-01-02"
	layoutExportName = "20060102_150405"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List logs
// @Description  Newest first. Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD') and state. A date-only 'to' is inclusive to the end of that day.
// @Tags         logs
// @Produce      json
// @Param        from   query   string  false  "Start of range"  example(2025-08-01)
// @Param        to     query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        state  query   string  false  "Elevator state"  Enums(Idle,MovingUp,MovingDown,DoorsOpening,DoorsOpen,DoorsClosing)
// @Success      200    {object}  map[string]interface{}  "count, entries"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Failure      504    {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var (
		from  time.Time
		to    time.Time
		state = strings.TrimSpace(c.Query("state"))
		err   error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	entries, err := h.services.EventLog.List(c.Request.Context(), service.LogFilter{
		From:  from,
		To:    to,
		State: state,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, statusFor(err), errLoadLogs, "logs_list_failed", err,
			"from", from, "to", to, "state", state)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// @Summary      Clear logs
// @Tags         logs
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/logs [delete]
// @Security     BearerAuth
func (h *Handler) clearLogs(c *gin.Context) {
	if err := h.services.EventLog.Clear(c.Request.Context()); err != nil {
		h.logAndJSONError(c, statusFor(err), errClearLogs, "logs_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCleared})
}

// @Summary      Export logs
// @Description  Plain-text report, newest first.
// @Tags         logs
// @Produce      plain
// @Success      200  {string}  string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/logs/export [get]
// @Security     BearerAuth
func (h *Handler) exportLogs(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.services.EventLog.Export(c.Request.Context(), &buf)
	if err != nil {
		h.logAndJSONError(c, statusFor(err), errExportLogs, "logs_export_failed", err)
		return
	}
	if h.log != nil {
		h.log.Infow("logs_exported", "entries", n)
	}
	name := fmt.Sprintf("elevator_log_%s.txt", time.Now().Format(layoutExportName))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
