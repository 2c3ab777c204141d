package handlers

import (
	"net/http"
	"strconv"

	"quizadmin/models"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

const defaultDaysToKeep = 30

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logs, err := h.activityService.GetActivityLog(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activityService.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity record deleted"})
}

func (h *ActivityHandler) Clear(c *gin.Context) {
	if err := h.activityService.ClearActivityLog(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity log cleared"})
}

func (h *ActivityHandler) Prune(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultDaysToKeep)))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid number of days"})
		return
	}

	deleted, err := h.activityService.ClearOldLogs(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *ActivityHandler) ListDeleted(c *gin.Context) {
	items, err := h.activityService.GetDeletedContent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *ActivityHandler) RestoreDeleted(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	restored, err := h.activityService.RestoreDeletedContent(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	if !restored {
		c.JSON(http.StatusOK, gin.H{"restored": false, "message": "This content was already restored or is no longer available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": true})
}

func (h *ActivityHandler) DeleteDeleted(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	if err := h.activityService.DeleteDeletedContent(c.Request.Context(), c.Param("id"), index); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted content removed permanently"})
}
