package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"microforge/pulse/internal/dispatch"
	"microforge/pulse/internal/domain"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	engine *dispatch.Engine
}

func NewNotificationController(engine *dispatch.Engine) *NotificationController {
	return &NotificationController{engine: engine}
}

// dispatchContext detaches the request context before it reaches the engine:
// a dispatch, once started, settles on its own regardless of whether the
// caller is still connected. Provider send timeouts bound its duration.
func dispatchContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// Send dispatches a single notification. All-or-nothing: a provider failure
// is the call's failure.
func (n *NotificationController) Send(c *gin.Context) {
	var req domain.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := n.engine.Dispatch(dispatchContext(c), req)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Notification sent successfully",
		"notificationId": result.NotificationID,
		"data":           result,
	})
}

// SendEmail is the dedicated email endpoint.
func (n *NotificationController) SendEmail(c *gin.Context) {
	var req domain.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := n.engine.DispatchEmail(dispatchContext(c), req)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Email notification sent successfully",
		"notificationId": result.NotificationID,
		"data":           result,
	})
}

// SendBatch dispatches every item and reports partial success: a failed item
// never fails the batch response.
func (n *NotificationController) SendBatch(c *gin.Context) {
	var req struct {
		Notifications []domain.NotificationRequest `json:"notifications"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := n.engine.DispatchBatch(dispatchContext(c), req.Notifications)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Batch notification processed",
		"batchId": result.BatchID,
		"summary": result.Summary,
		"results": result.Results,
	})
}

// Status looks up a notification by id.
func (n *NotificationController) Status(c *gin.Context) {
	record, err := n.engine.Status(c.Request.Context(), c.Param("notificationId"))
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// maxHistoryLimit bounds how many records a single history request can ask
// for, matching the batch size bound.
const maxHistoryLimit = 100

// History returns the most recent notifications, newest first.
func (n *NotificationController) History(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := n.engine.Recent(c.Request.Context(), limit)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// MarkRead flips a notification's read flag.
func (n *NotificationController) MarkRead(c *gin.Context) {
	record, err := n.engine.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
		"data":    record,
	})
}

// UserRegistration is the trusted webhook from the login service. The welcome
// email is best-effort: its failure does not fail this response.
func (n *NotificationController) UserRegistration(c *gin.Context) {
	var ev domain.UserEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	outcome, err := n.engine.HandleUserRegistration(dispatchContext(c), ev)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Registration notification processed",
		"notificationId": outcome.Record.ID,
		"email":          outcome.Email,
		"emailError":     outcome.EmailError,
	})
}

// UserLogin is the trusted webhook from the auth service.
func (n *NotificationController) UserLogin(c *gin.Context) {
	var ev domain.UserEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	record, err := n.engine.HandleUserLogin(dispatchContext(c), ev)
	if err != nil {
		writeDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Login notification processed",
		"notificationId": record.ID,
	})
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

// writeDispatchError maps the engine's error taxonomy onto HTTP responses:
// validation errors are 400 with every offending field, unknown ids are 404,
// provider failures are 502.
func writeDispatchError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation error",
			"errors":  verr.Fields,
		})
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Notification not found",
		})
		return
	}

	var derr *domain.DeliveryError
	if errors.As(err, &derr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"success":   false,
			"message":   "Notification delivery failed",
			"channel":   derr.Channel,
			"recipient": derr.Recipient,
			"error":     derr.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal server error",
		"error":   err.Error(),
	})
}
