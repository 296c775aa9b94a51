package handlers

import (
	"context"
	"errors"
	"net/http"

	"elevator_control/internal/elevator"
	"elevator_control/internal/logqueue"
	"elevator_control/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errInvalidBodyPref = "invalid body: "
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, elevator.ErrInvalidFloor):
		return http.StatusBadRequest
	case errors.Is(err, elevator.ErrBusy), errors.Is(err, elevator.ErrInvalidOperation):
		return http.StatusConflict
	case errors.Is(err, logqueue.ErrFlushTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondCommand writes the outcome of an elevator command together with the
// snapshot taken right after it.
func (h *Handler) respondCommand(c *gin.Context, snap models.Snapshot, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": snap})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAccepted, "state": snap})
}

// FloorRequest is the payload of POST /api/v1/elevator/request.
type FloorRequest struct {
	Floor *int `json:"floor" binding:"required" example:"1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Request a floor
// @Description  Accepted while idle, doors open or doors closing. Busy while moving or opening.
// @Tags         elevator
// @Accept       json
// @Produce      json
// @Param        body  body      FloorRequest  true  "Target floor"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]interface{}
// @Router       /api/v1/elevator/request [post]
// @Security     BearerAuth
func (h *Handler) requestFloor(c *gin.Context) {
	var req FloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Elevator.RequestFloor(c.Request.Context(), models.FloorID(*req.Floor))
	h.respondCommand(c, snap, err)
}

// @Summary      Open doors
// @Tags         elevator
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Router       /api/v1/elevator/doors/open [post]
// @Security     BearerAuth
func (h *Handler) openDoors(c *gin.Context) {
	snap, err := h.services.Elevator.OpenDoors(c.Request.Context())
	h.respondCommand(c, snap, err)
}

// @Summary      Close doors
// @Tags         elevator
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Router       /api/v1/elevator/doors/close [post]
// @Security     BearerAuth
func (h *Handler) closeDoors(c *gin.Context) {
	snap, err := h.services.Elevator.CloseDoors(c.Request.Context())
	h.respondCommand(c, snap, err)
}

// @Summary      Get elevator state
// @Tags         elevator
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/elevator/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Elevator.State(c.Request.Context()))
}

// @Summary      List floors
// @Tags         elevator
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, floors"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/elevator/floors [get]
// @Security     BearerAuth
func (h *Handler) getFloors(c *gin.Context) {
	floors := h.services.Elevator.Floors()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(floors),
		"floors": floors,
	})
}
