package handlers

import (
	"net/http"

	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	backupService *services.BackupService
}

func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

type createBackupRequest struct {
	Description string `json:"description"`
}

func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backupService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, backups)
}

func (h *BackupHandler) Create(c *gin.Context) {
	var req createBackupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	key, err := h.backupService.CreateBackup(c.Request.Context(), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h *BackupHandler) Restore(c *gin.Context) {
	if err := h.backupService.RestoreBackup(c.Request.Context(), c.Param("key"), confirmed(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup restored successfully"})
}

func (h *BackupHandler) RestoreLatest(c *gin.Context) {
	if err := h.backupService.RestoreLatest(c.Request.Context(), confirmed(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup restored successfully"})
}

func (h *BackupHandler) Delete(c *gin.Context) {
	if err := h.backupService.DeleteBackup(c.Request.Context(), c.Param("key"), confirmed(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup deleted successfully"})
}
