package handlers

import (
	"errors"
	"log"
	"net/http"

	"smart-task-list/internal/gateway"

	"github.com/gin-gonic/gin"
)

type GatewayHandler struct {
	gateway *gateway.Gateway
}

func NewGatewayHandler(g *gateway.Gateway) *GatewayHandler {
	return &GatewayHandler{gateway: g}
}

func (h *GatewayHandler) Install(c *gin.Context) {
	if err := h.gateway.Install(c.Request.Context()); err != nil {
		log.Printf("Install failed: %v", err)
		status := http.StatusInternalServerError
		if !errors.Is(err, gateway.ErrInstallFailed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"installed": h.gateway.Version()})
}

func (h *GatewayHandler) Activate(c *gin.Context) {
	if err := h.gateway.Activate(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":      h.gateway.Version(),
		"controlling": h.gateway.Controlling(),
	})
}

func (h *GatewayHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.Stats(c.Request.Context()))
}

// Status reports the connection indicator shown in the app header.
func (h *GatewayHandler) Status(c *gin.Context) {
	online := h.gateway.Online()
	label := "Online"
	if !online {
		label = "Offline"
	}
	c.JSON(http.StatusOK, gin.H{"online": online, "label": label})
}

// Push delivers a raw push message body.
func (h *GatewayHandler) Push(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.gateway.HandlePush(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, n)
}

// Proxy hands every unrouted request to the offline cache.
func (h *GatewayHandler) Proxy(c *gin.Context) {
	h.gateway.ServeHTTP(c.Writer, c.Request)
}
