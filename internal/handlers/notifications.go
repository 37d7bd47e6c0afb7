package handlers

import (
	"context"
	"net/http"

	"smart-task-list/internal/notify"

	"github.com/gin-gonic/gin"
)

// NotificationButton is the notification toggle flow.
type NotificationButton interface {
	State(ctx context.Context) notify.ButtonState
	RequestPermission(ctx context.Context, granted bool) (notify.ButtonState, error)
	Toggle(ctx context.Context, granted bool) (notify.ButtonState, error)
}

type NotificationHandler struct {
	button  NotificationButton
	center  *notify.Center
	clients *notify.Clients
}

func NewNotificationHandler(button NotificationButton, center *notify.Center) *NotificationHandler {
	return &NotificationHandler{button: button, center: center, clients: center.Clients()}
}

type permissionInput struct {
	Granted bool `json:"granted"`
}

func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, h.button.State(c.Request.Context()))
}

func (h *NotificationHandler) RequestPermission(c *gin.Context) {
	var input permissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.button.RequestPermission(c.Request.Context(), input.Granted)
	if err != nil {
		handleStoreError(c, "failed to store permission", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Toggle presses the notification button. The body is optional and only
// matters while the permission is still undecided.
func (h *NotificationHandler) Toggle(c *gin.Context) {
	var input permissionInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	state, err := h.button.Toggle(c.Request.Context(), input.Granted)
	if err != nil {
		handleStoreError(c, "failed to toggle notifications", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.center.List())
}

func (h *NotificationHandler) ClickNotification(c *gin.Context) {
	var input struct {
		Action string `json:"action"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.center.Click(c.Request.Context(), c.Param("id"), input.Action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.clients.MatchAll())
}

func (h *NotificationHandler) RegisterClient(c *gin.Context) {
	var input struct {
		URL string `json:"url"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.URL == "" {
		input.URL = notify.RootPath
	}

	window, err := h.clients.Register(input.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, window)
}

func (h *NotificationHandler) UnregisterClient(c *gin.Context) {
	if !h.clients.Unregister(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
