package handlers

import (
	"context"
	"log"
	"net/http"

	"smart-task-list/internal/models"
	"smart-task-list/internal/services"

	"github.com/gin-gonic/gin"
)

// TaskCommands is the command surface of the task store.
type TaskCommands interface {
	Add(ctx context.Context, text string) (services.AddResult, error)
	Toggle(ctx context.Context, id string) (services.ToggleResult, error)
	Delete(ctx context.Context, id string) (services.DeleteResult, error)
	SetFilter(filter models.Filter) models.TaskView
	Filter() models.Filter
	Render(filter models.Filter) models.TaskView
	ActiveCount() int
}

type TaskHandler struct {
	store TaskCommands
}

func NewTaskHandler(store TaskCommands) *TaskHandler {
	return &TaskHandler{store: store}
}

// GetTasks renders the list through ?filter=, or the current filter when absent.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	filter := h.store.Filter()
	if raw, ok := c.GetQuery("filter"); ok {
		filter = models.ParseFilter(raw)
	}
	c.JSON(http.StatusOK, h.store.Render(filter))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.store.Add(c.Request.Context(), input.Text)
	if err != nil {
		handleStoreError(c, "failed to add task", err)
		return
	}

	if !result.Created {
		c.JSON(http.StatusOK, gin.H{"created": false})
		return
	}
	c.JSON(http.StatusCreated, result.Task)
}

// ToggleTask answers 200 with {"found":false} for an unknown id.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	result, err := h.store.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleStoreError(c, "failed to toggle task", err)
		return
	}

	if !result.Found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, result.Task)
}

// DeleteTask answers 204 whether or not the task existed.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if _, err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleStoreError(c, "failed to delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) SetFilter(c *gin.Context) {
	var input struct {
		Filter string `json:"filter"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.store.SetFilter(models.ParseFilter(input.Filter)))
}

func (h *TaskHandler) GetCount(c *gin.Context) {
	active := h.store.ActiveCount()
	c.JSON(http.StatusOK, gin.H{
		"active": active,
		"label":  models.CountLabel(active),
	})
}

func handleStoreError(c *gin.Context, message string, err error) {
	log.Printf("%s: %v", message, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
